package incidents

import (
	"net/http"
	"strings"
)

// InputMode says where an operation's input travels.
type InputMode int

const (
	// QueryMode sends the input as URL query parameters.
	QueryMode InputMode = iota
	// BodyMode sends the input as a JSON request body.
	BodyMode
)

func (m InputMode) String() string {
	switch m {
	case QueryMode:
		return "query"
	case BodyMode:
		return "body"
	default:
		return "unknown"
	}
}

// Operation is a fixed route on the incidents API.
type Operation struct {
	Name   string
	Method string
	Path   string
	Mode   InputMode
}

var (
	// OpCrowdScore queries the environment-wide CrowdScore.
	OpCrowdScore = Operation{Name: "CrowdScore", Method: http.MethodGet, Path: "/incidents/combined/crowdscores/v1", Mode: QueryMode}
	// OpGetBehaviors fetches behavior details by ID.
	OpGetBehaviors = Operation{Name: "GetBehaviors", Method: http.MethodPost, Path: "/incidents/entities/behaviors/GET/v1", Mode: BodyMode}
	// OpPerformIncidentAction applies actions such as tagging or status changes to incidents.
	OpPerformIncidentAction = Operation{Name: "PerformIncidentAction", Method: http.MethodPost, Path: "/incidents/entities/incident-actions/v1", Mode: BodyMode}
	// OpGetIncidents fetches incident details by ID.
	OpGetIncidents = Operation{Name: "GetIncidents", Method: http.MethodPost, Path: "/incidents/entities/incidents/GET/v1", Mode: BodyMode}
	// OpQueryBehaviors searches behavior IDs with FQL filter, sort and paging.
	OpQueryBehaviors = Operation{Name: "QueryBehaviors", Method: http.MethodGet, Path: "/incidents/queries/behaviors/v1", Mode: QueryMode}
	// OpQueryIncidents searches incident IDs with FQL filter, sort and paging.
	OpQueryIncidents = Operation{Name: "QueryIncidents", Method: http.MethodGet, Path: "/incidents/queries/incidents/v1", Mode: QueryMode}
)

var operations = []Operation{
	OpCrowdScore,
	OpGetBehaviors,
	OpPerformIncidentAction,
	OpGetIncidents,
	OpQueryBehaviors,
	OpQueryIncidents,
}

// Operations returns a copy of the supported operation table.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// LookupOperation resolves an operation by name, ignoring case.
func LookupOperation(name string) (Operation, bool) {
	name = strings.TrimSpace(name)
	for _, op := range operations {
		if strings.EqualFold(op.Name, name) {
			return op, true
		}
	}
	return Operation{}, false
}
