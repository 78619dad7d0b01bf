package fixtures

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type graphRequest struct {
	Query     string `json:"query"`
	Variables struct {
		Text  string `json:"text"`
		First int    `json:"first"`
	} `json:"variables"`
}

type venueMeta struct {
	ID string `json:"id"`
}

type venue struct {
	Meta venueMeta         `json:"meta"`
	Name map[string]string `json:"name"`
}

type edge struct {
	Node struct {
		Venue venue `json:"venue"`
	} `json:"node"`
}

type connection struct {
	Edges []edge `json:"edges"`
}

// Handler serves POST graph queries from the index. Venue ids are encoded as
// strings and the connection is returned under rootField.
func Handler(index *Index, rootField string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req graphRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid graph request", http.StatusBadRequest)
			return
		}

		found := index.Search(req.Variables.Text, req.Variables.First)
		conn := connection{Edges: make([]edge, 0, len(found))}
		for _, loc := range found {
			var e edge
			e.Node.Venue = venue{
				Meta: venueMeta{ID: strconv.Itoa(loc.ID)},
				Name: loc.Name,
			}
			conn.Edges = append(conn.Edges, e)
		}

		logger.Debug("Graph search",
			zap.String("text", req.Variables.Text),
			zap.Int("first", req.Variables.First),
			zap.Int("results", len(conn.Edges)),
		)

		w.Header().Set("Content-Type", "application/json")
		body := map[string]any{"data": map[string]any{rootField: conn}}
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Error("Error encoding graph response", zap.Error(err))
		}
	})
}
