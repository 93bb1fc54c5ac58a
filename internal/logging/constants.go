package logging

// Standardized field names for structured logging.
const (
	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldCategoryID  = "category_id"
	FieldRuleID      = "rule_id"
	FieldRecurringID = "recurring_id"
	FieldTransaction = "transaction_id"
	FieldRow         = "row"
	FieldBatch       = "batch"
	FieldPattern     = "pattern"
	FieldStrategy    = "strategy"
	FieldConfidence  = "confidence"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldCount       = "count"
	FieldDelimiter   = "delimiter"
	FieldDateFormat  = "date_format"
	FieldFrequency   = "frequency"
	FieldNextDate    = "next_occurrence"
	FieldDuration    = "duration_ms"
	FieldInputFile   = "input_file"
)
