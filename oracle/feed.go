package oracle

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/log"
)

// Feed is an HTTP oracle serving signed payloads:
//
//	GET /fixture        current fixture
//	GET /status/{id}    latest status for fixture id
//
// Payloads are signed when they are published, not per request.
type Feed struct {
	signer crypto.Signer
	layout contract.StatusMessage
	log    *log.Logger

	mu       sync.RWMutex
	fixture  *FixturePayload
	statuses map[string]StatusPayload
	mux      *http.ServeMux
}

// NewFeed creates a feed signing with signer. layout selects the status
// message the deployment expects.
func NewFeed(signer crypto.Signer, layout contract.StatusMessage, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}
	f := &Feed{
		signer:   signer,
		layout:   layout,
		log:      logger.Module("oracle"),
		statuses: make(map[string]StatusPayload),
		mux:      http.NewServeMux(),
	}
	f.mux.HandleFunc("GET /fixture", f.handleFixture)
	f.mux.HandleFunc("GET /status/{id}", f.handleStatus)
	return f
}

// PublishFixture signs fx and makes it the current fixture.
func (f *Feed) PublishFixture(fx contract.Fixture) (FixturePayload, error) {
	p, err := SignFixture(f.signer, fx)
	if err != nil {
		return FixturePayload{}, err
	}
	f.mu.Lock()
	f.fixture = &p
	f.mu.Unlock()
	f.log.Info("published fixture", "fixture", fx.FixtureID)
	return p, nil
}

// PublishStatus signs st for fixture fx.
func (f *Feed) PublishStatus(fx contract.Fixture, st contract.FixtureStatus) (StatusPayload, error) {
	p, err := SignStatus(f.signer, f.layout, fx, st)
	if err != nil {
		return StatusPayload{}, err
	}
	f.mu.Lock()
	f.statuses[fx.FixtureID.String()] = p
	f.mu.Unlock()
	f.log.Info("published status", "fixture", fx.FixtureID, "status", st.Status, "winner", st.WinnerTeamID)
	return p, nil
}

// ServeHTTP implements http.Handler.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mux.ServeHTTP(w, r)
}

func (f *Feed) handleFixture(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	p := f.fixture
	f.mu.RUnlock()
	if p == nil {
		http.Error(w, "no fixture published", http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func (f *Feed) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := field.FromDecimal(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.RLock()
	p, ok := f.statuses[id.String()]
	f.mu.RUnlock()
	if !ok {
		http.Error(w, "no status for fixture "+id.String(), http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
