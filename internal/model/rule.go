package model

// TriggerType identifies what a rule trigger compares against a journal.
type TriggerType string

const (
	TriggerDescriptionIs       TriggerType = "description_is"
	TriggerDescriptionContains TriggerType = "description_contains"
	TriggerDescriptionStarts   TriggerType = "description_starts"
	TriggerDescriptionEnds     TriggerType = "description_ends"
	TriggerAmountExactly       TriggerType = "amount_exactly"
	TriggerAmountLess          TriggerType = "amount_less"
	TriggerAmountMore          TriggerType = "amount_more"
	TriggerTransactionType     TriggerType = "transaction_type"
	TriggerCurrencyIs          TriggerType = "currency_is"
	TriggerSourceAccountIs     TriggerType = "source_account_is"
	TriggerDestAccountIs       TriggerType = "destination_account_is"
)

// ActionType identifies what a rule action mutates on a journal.
type ActionType string

const (
	ActionSetDescription     ActionType = "set_description"
	ActionPrependDescription ActionType = "prepend_description"
	ActionAppendDescription  ActionType = "append_description"
	ActionSetCategory        ActionType = "set_category"
	ActionSetBudget          ActionType = "set_budget"
	ActionAddTag             ActionType = "add_tag"
	ActionSetNotes           ActionType = "set_notes"
)

// Rule is an ordered trigger/action automation applied to newly
// created journals.
type Rule struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"index"`
	Title  string
	// Order positions the rule within the user's rule list. Lower
	// runs first.
	Order  int `gorm:"column:rule_order"`
	Active bool
	// StopProcessing halts evaluation of subsequent rules for a
	// journal once this rule matched. All of this rule's actions
	// still run.
	StopProcessing bool
	// OnRecurrence marks the rule for the recurrence/import flow.
	OnRecurrence bool

	Triggers []RuleTrigger `gorm:"foreignKey:RuleID"`
	Actions  []RuleAction  `gorm:"foreignKey:RuleID"`
}

// RuleTrigger is one condition within a rule. All triggers of a rule
// must match for the rule to fire.
type RuleTrigger struct {
	ID     uint `gorm:"primaryKey"`
	RuleID uint `gorm:"index"`
	Type   TriggerType
	Value  string
	Order  int `gorm:"column:trigger_order"`
}

// RuleAction is one mutate-a-field step within a rule, applied in
// stored order when the rule matches.
type RuleAction struct {
	ID     uint `gorm:"primaryKey"`
	RuleID uint `gorm:"index"`
	Type   ActionType
	Value  string
	Order  int `gorm:"column:action_order"`
}
