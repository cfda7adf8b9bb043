package sessions

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/safespace-ai/safespace/models"
	"github.com/safespace-ai/safespace/stores"
)

// Registry is the session context manager: it owns every active Profile and
// the lifecycle of its transcript. One profile per interactive session;
// mutations are start, clear, and the idle-session sweep.
type Registry struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	store    stores.MessageStore
	ttl      time.Duration
	cron     *cron.Cron
}

// NewRegistry creates a registry backed by the given transcript store.
// Sessions idle longer than ttl are swept periodically (0 disables sweeping).
func NewRegistry(store stores.MessageStore, ttl time.Duration) *Registry {
	r := &Registry{
		profiles: make(map[string]*Profile),
		store:    store,
		ttl:      ttl,
	}

	if ttl > 0 {
		r.cron = cron.New()
		if _, err := r.cron.AddFunc("@every 10m", r.sweep); err != nil {
			log.Printf("Warning: failed to schedule session sweep: %v", err)
		} else {
			r.cron.Start()
		}
	}

	return r
}

// Start initializes a new session and returns its profile plus the assistant
// greeting, which is also recorded as the first transcript entry.
func (r *Registry) Start(name, phone string) (*Profile, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}

	now := time.Now()
	profile := &Profile{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
		LastSeen:  now,
	}

	if err := r.store.CreateConversation(profile.ID); err != nil {
		return nil, "", fmt.Errorf("failed to create transcript: %w", err)
	}

	greeting := Greeting(name)
	greetingPart := models.Model_Part{Text: &greeting}
	if err := r.store.SaveMessage(profile.ID, "model", "model_message", []models.Model_Part{greetingPart}, ""); err != nil {
		log.Printf("Warning: failed to save greeting for session %s: %v", profile.ID, err)
	}

	r.mu.Lock()
	r.profiles[profile.ID] = profile
	r.mu.Unlock()

	return profile, greeting, nil
}

// Lookup returns the profile for a session ID and refreshes its LastSeen.
func (r *Registry) Lookup(id string) (*Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if ok {
		p.LastSeen = time.Now()
	}
	return p, ok
}

// Clear discards the session: profile and transcript both. A subsequent
// message requires a fresh start.
func (r *Registry) Clear(id string) error {
	r.mu.Lock()
	_, ok := r.profiles[id]
	delete(r.profiles, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown session: %s", id)
	}

	return r.store.DeleteConversation(id)
}

// Close stops the sweep scheduler.
func (r *Registry) Close() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// sweep removes sessions idle longer than the TTL along with their transcripts.
func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []string
	for id, p := range r.profiles {
		if p.LastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(r.profiles, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		if err := r.store.DeleteConversation(id); err != nil {
			log.Printf("Warning: failed to delete transcript for expired session %s: %v", id, err)
		}
	}
	if len(expired) > 0 {
		log.Printf("Swept %d idle session(s)", len(expired))
	}
}

// Greeting builds the assistant's opening message for a new session.
func Greeting(name string) string {
	return fmt.Sprintf("Hello %s, I'm Friday. We can chat here. "+
		"If you ever indicate an emergency, I may attempt to call the provided number for help.", name)
}

// SessionContext builds the per-turn system context string. The phone number
// appears verbatim so the model passes it unchanged to the emergency tool.
func SessionContext(p *Profile) string {
	return fmt.Sprintf("User name: %s. User phone: %s. "+
		"When using call_emergency_services(phone), always pass this exact phone number: %s. "+
		"Agent name is Friday.", p.Name, p.Phone, p.Phone)
}
