package catalog

// ToolConfig describes a billable action: its base credit cost, its free daily
// allowance and the kind of model it needs.
type ToolConfig struct {
	Name        string
	Description string

	// What type of model the tool needs.
	ModelType ModelType

	// Specific model, or empty to use the type's standard-tier default.
	DefaultModelID string

	BaseCreditCost int64

	// Free uses per (account, chat) per UTC day. 0 means paid only.
	FreeDailyLimit int

	// Premium tools are visible to the agent but unusable without credits.
	IsPremium bool
}

// TotalCost returns the credits required to run the tool with a given model.
func (t ToolConfig) TotalCost(modelCreditCost int64) int64 {
	return t.BaseCreditCost + modelCreditCost
}
