package logging

const (
	// FieldComponent names the package or subsystem emitting the record.
	FieldComponent = "component"
	// FieldJobID carries the history store job identifier.
	FieldJobID = "job_id"
	// FieldStage carries the pipeline stage (e.g. "stage 2/3", "rung 1").
	FieldStage = "stage"
	// FieldCorrelationID carries the per-invocation correlation identifier.
	FieldCorrelationID = "correlation_id"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision recorded by DecisionAttrs.
	FieldDecisionType = "decision_type"
	// FieldProgressPercent is the percent complete of a running invocation.
	FieldProgressPercent = "progress_percent"
	// FieldProgressETA is the remaining time estimate.
	FieldProgressETA = "progress_eta"
	// FieldSessionID identifies one CLI run across every record it emits.
	FieldSessionID = "session_id"
)
