package models

// Operation names an AI-backed feature.
type Operation string

const (
	OpDescription   Operation = "description"
	OpRisk          Operation = "risk"
	OpVisualization Operation = "visualization"
	OpCost          Operation = "cost"
	OpSearch        Operation = "search"
	OpChat          Operation = "chat"
)

// Operations lists every operation in a stable order.
var Operations = []Operation{OpDescription, OpRisk, OpVisualization, OpCost, OpSearch, OpChat}
