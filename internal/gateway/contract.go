package gateway

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	toolerr "railway-gateway/internal/common/errors"
)

// Tool describes one operation to the external orchestrator. The shape
// follows the function-calling contract major LLM providers share.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is the subset of JSON Schema the contract needs.
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

func newTool(name Operation, description string, params JSONSchema) Tool {
	return Tool{
		Type: "function",
		Function: Function{
			Name:        string(name),
			Description: description,
			Parameters:  params,
		},
	}
}

func stationProp(role string) *JSONSchema {
	return &JSONSchema{
		Type:        "string",
		Description: role + " station: a canonical code (e.g. NDLS) or a city name (e.g. Delhi)",
	}
}

var dateProp = &JSONSchema{
	Type:        "string",
	Description: "Journey date as DD-MM-YYYY",
	Pattern:     `^\d{2}-\d{2}-\d{4}$`,
}

var trainNumberProp = &JSONSchema{
	Type:        "string",
	Description: "Train number, 4 or 5 digits",
	Pattern:     `^\d{4,5}$`,
}

// toolDefinitions is the closed contract: one entry per operation. The
// dispatcher's handler map and this table are checked against each other at
// construction time.
var toolDefinitions = map[Operation]Tool{
	OpGetPNRStatus: newTool(OpGetPNRStatus,
		"Fetch PNR booking status including train, journey and passenger status",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"pnr": {Type: "string", Description: "10-digit PNR number", Pattern: `^\d{10}$`},
			},
			Required: []string{"pnr"},
		}),
	OpResolveStationCode: newTool(OpResolveStationCode,
		"Resolve a city or station name to canonical station codes",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"name": {Type: "string", Description: "City or station name, e.g. Delhi"},
			},
			Required: []string{"name"},
		}),
	OpGetLiveStationTrains: newTool(OpGetLiveStationTrains,
		"Fetch trains running between two stations within the next N hours",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"source":      stationProp("Source"),
				"destination": stationProp("Destination"),
				"hours":       {Type: "integer", Description: "Window in hours (default 4)", Minimum: f64(1), Maximum: f64(24)},
			},
			Required: []string{"source", "destination"},
		}),
	OpGetTrainSchedule: newTool(OpGetTrainSchedule,
		"Fetch the complete route and timetable of a train",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"train_number": trainNumberProp,
			},
			Required: []string{"train_number"},
		}),
	OpGetFare: newTool(OpGetFare,
		"Fetch ticket fares per class for a train between two stations",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"train_number": trainNumberProp,
				"source":       stationProp("Source"),
				"destination":  stationProp("Destination"),
				"date":         dateProp,
			},
			Required: []string{"train_number", "source", "destination"},
		}),
	OpGetLiveTrainStatus: newTool(OpGetLiveTrainStatus,
		"Track the current position and delay of a running train",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"train_number": trainNumberProp,
				"date":         dateProp,
			},
			Required: []string{"train_number"},
		}),
	OpCheckSeatAvailability: newTool(OpCheckSeatAvailability,
		"Check seat availability between two stations on a date",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"source":       stationProp("Source"),
				"destination":  stationProp("Destination"),
				"date":         dateProp,
				"train_number": trainNumberProp,
			},
			Required: []string{"source", "destination", "date"},
		}),
	OpSearchTrains: newTool(OpSearchTrains,
		"Find all trains between two stations",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"source":      stationProp("Source"),
				"destination": stationProp("Destination"),
				"date":        dateProp,
			},
			Required: []string{"source", "destination"},
		}),
}

func f64(v float64) *float64 { return &v }

// Definitions returns the tool contract in a stable order.
func Definitions() []Tool {
	out := make([]Tool, 0, len(toolDefinitions))
	for _, op := range Operations() {
		out = append(out, toolDefinitions[op])
	}
	return out
}

// validateArguments checks a raw argument document against the operation's
// schema before anything is bound or any I/O happens.
func validateArguments(op Operation, args []byte) error {
	def, ok := toolDefinitions[op]
	if !ok {
		return toolerr.NewValidationError(fmt.Sprintf("unknown operation %q", op))
	}

	schemaLoader := gojsonschema.NewGoLoader(def.Function.Parameters)
	documentLoader := gojsonschema.NewBytesLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return toolerr.NewValidationError("arguments are not valid JSON: " + err.Error())
	}
	if !result.Valid() {
		details := ""
		for i, desc := range result.Errors() {
			if i > 0 {
				details += "; "
			}
			details += desc.String()
		}
		return toolerr.NewValidationError(details)
	}
	return nil
}
