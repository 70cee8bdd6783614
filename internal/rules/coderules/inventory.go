package coderules

// All returns the closed, tagged inventory of code-quality rules (spec §9:
// "a simple inventory/table suffices" in place of the original's
// directory-scan discovery).
func All() []Rule {
	return []Rule{
		SwallowedExceptionsRule{},
		MissingRetryRule{},
		OutdatedDocsRule{},
		ForcePushRule{},
		HardResetRule{},
		DestructiveOpsRule{},
	}
}
