package models

// All lists the persisted models in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&StudentProfile{},
		&EmployerProfile{},
		&Skill{},
		&StudentSkill{},
		&Opportunity{},
		&OpportunitySkill{},
		&Application{},
		&SavedOpportunity{},
		&Certificate{},
	}
}
