package config

// setDedupDefaults installs default values for deduplication settings.
func setDedupDefaults() {
	setDefault("dedup.criteria", "id")
	setDefault("dedup.window", "")
}

// registerDedupValidators registers validators for deduplication settings.
func registerDedupValidators() {
	RegisterValidator("dedup.criteria", EnumValidator(map[string]bool{
		"id":      true,
		"content": true,
		"exact":   true,
	}))
	RegisterValidator("dedup.window", DurationValidator(true))
}
