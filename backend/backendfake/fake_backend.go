// Package backendfake is an in-process stand-in for the maintenance REST backend. It serves
// the login endpoint and the resource collections the console reads.
package backendfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/atelier-console/backend"
	"golang.org/x/crypto/bcrypt"
)

// User is an account known to the fake backend
type User struct {
	ID           int64
	Username     string
	FullName     string
	Role         string // as the backend spells it, e.g. "technicien"
	PasswordHash string
}

// Backend is safe for concurrent use
type Backend struct {
	lock    sync.RWMutex
	users   map[string]*User // username -> user
	tokens  map[string]*User // token -> user
	records map[backend.Resource][]backend.Record

	// NewToken issues login tokens; replace it to get predictable tokens in tests
	NewToken func() string

	mux *http.ServeMux
}

var _ http.Handler = (*Backend)(nil)

func New() *Backend {
	b := &Backend{
		users:    make(map[string]*User),
		tokens:   make(map[string]*User),
		records:  make(map[backend.Resource][]backend.Record),
		NewToken: uuid.NewString,
		mux:      http.NewServeMux(),
	}
	b.mux.HandleFunc("POST /login/{$}", b.login)
	b.mux.HandleFunc("GET /{resource}/{$}", b.list)
	b.mux.HandleFunc("DELETE /{resource}/{id}/{$}", b.delete)
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// AddUser registers an account with a bcrypt hash of password
func (b *Backend) AddUser(id int64, username, password, role, fullName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("[backendfake AddUser] %w", err)
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	b.users[username] = &User{
		ID:           id,
		Username:     username,
		FullName:     fullName,
		Role:         role,
		PasswordHash: string(hash),
	}
	return nil
}

// AddRecords appends records to resource
func (b *Backend) AddRecords(resource backend.Resource, records ...backend.Record) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.records[resource] = append(b.records[resource], records...)
}

// Revoke forgets a token, as if it had expired on the backend
func (b *Backend) Revoke(token string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.tokens, token)
}

// Records returns a copy of resource's records
func (b *Backend) Records(resource backend.Resource) []backend.Record {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]backend.Record(nil), b.records[resource]...)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	user, ok := b.users[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	token := b.NewToken()
	b.tokens[token] = user

	profile := map[string]any{"id": user.ID, "username": user.Username}
	if user.FullName != "" {
		profile["full_name"] = user.FullName
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"role":  user.Role,
		"user":  profile,
	})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	if !b.authorised(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
		return
	}
	resource := backend.Resource(r.PathValue("resource"))
	if !resource.Valid() {
		http.NotFound(w, r)
		return
	}

	records := b.Records(resource)
	if records == nil {
		records = []backend.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (b *Backend) delete(w http.ResponseWriter, r *http.Request) {
	if !b.authorised(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid token."})
		return
	}
	resource := backend.Resource(r.PathValue("resource"))
	id := r.PathValue("id")

	b.lock.Lock()
	defer b.lock.Unlock()

	records := b.records[resource]
	for i, record := range records {
		if fmt.Sprint(record["id"]) == id {
			b.records[resource] = append(records[:i:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.NotFound(w, r)
}

// authorised accepts "Token <token>" or "Session <user id>"
func (b *Backend) authorised(r *http.Request) bool {
	scheme, credential, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || credential == "" {
		return false
	}

	b.lock.RLock()
	defer b.lock.RUnlock()

	switch scheme {
	case string(backend.SchemeToken):
		_, ok := b.tokens[credential]
		return ok
	case string(backend.SchemeSession):
		for _, user := range b.tokens {
			if fmt.Sprint(user.ID) == credential {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Seed fills b with demo accounts and a handful of records for local development
func Seed(b *Backend) error {
	accounts := []struct {
		id                       int64
		username, password, role string
		fullName                 string
	}{
		{1, "admin", "admin123", "admin", "Admin Console"},
		{7, "tech1", "secret1", "technicien", "Martin Paul"},
	}
	for _, a := range accounts {
		if err := b.AddUser(a.id, a.username, a.password, a.role, a.fullName); err != nil {
			return err
		}
	}

	b.AddRecords(backend.ResourceAteliers,
		backend.Record{"id": 1, "nom": "Broyage"},
		backend.Record{"id": 2, "nom": "Calcination"},
	)
	b.AddRecords(backend.ResourceEquipements,
		backend.Record{"id": 1, "nom": "Broyeur B1", "atelier": 1},
		backend.Record{"id": 2, "nom": "Four F2", "atelier": 2},
	)
	b.AddRecords(backend.ResourceFormulaires,
		backend.Record{"id": 1, "atelier": 1, "equipement": 1, "date_defaillance": "2024-05-02", "nature_panne": "Mécanique", "indice_gravite": "Moyen", "pilote": "tech1"},
	)
	b.AddRecords(backend.ResourceStocks,
		backend.Record{"id": 1, "reference": "RLM-6205", "element": "Roulement 6205", "quantite": 14},
		backend.Record{"id": 2, "reference": "CRR-B40", "element": "Courroie B40", "quantite": 3},
	)
	b.AddRecords(backend.ResourceUsers,
		backend.Record{"id": 1, "username": "admin", "role": "admin"},
		backend.Record{"id": 7, "username": "tech1", "role": "technicien"},
	)
	return nil
}
