package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// confirm asks a yes/no question. CI runs answer yes.
func confirm(in io.Reader, out io.Writer, question string) bool {
	if os.Getenv("CI") != "" {
		return true
	}
	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "%s (y/N): ", question)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		// If we can't read, assume no
		return false
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes" || answer == "o" || answer == "oui"
}
