package objects

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Source{},
		&Category{},
		&Author{},
		&Article{},
		&UserPreference{},
		&ApiLog{},
		&SysJob{},
		&SysJobLog{},
	}
}
