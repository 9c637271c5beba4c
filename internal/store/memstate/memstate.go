// Package memstate implementa el ledger de states CSRF en memoria.
//
// Sólo para desarrollo y tests: no sobrevive reinicios ni sirve para
// despliegues multi-instancia. Los backends durables viven en store/pg y
// store/redisstate.
package memstate

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
	"github.com/dropDatabas3/issuehub/internal/security/token"
)

type entry struct {
	state     string
	expiresAt time.Time
}

type Ledger struct {
	mu     sync.Mutex
	states map[string]entry // userID -> state vivo

	// now permite congelar el reloj en tests.
	now func() time.Time
}

func New() *Ledger {
	return &Ledger{
		states: make(map[string]entry),
		now:    time.Now,
	}
}

const stateBytes = 32

// Create reemplaza cualquier state previo del usuario.
func (l *Ledger) Create(ctx context.Context, userID string) (string, error) {
	state, err := token.GenerateOpaque(stateBytes)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	l.states[userID] = entry{state: state, expiresAt: l.now().Add(repository.StateTTL)}
	l.mu.Unlock()
	return state, nil
}

// ValidateAndConsume valida y borra bajo el mismo lock: consume exactamente una vez.
func (l *Ledger) ValidateAndConsume(ctx context.Context, userID, state string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.states[userID]
	if !ok || e.state != state || !l.now().Before(e.expiresAt) {
		// Un state vencido también se descarta acá: GC pasivo.
		if ok && !l.now().Before(e.expiresAt) {
			delete(l.states, userID)
		}
		return false, nil
	}
	delete(l.states, userID)
	return true, nil
}

// Delete quema el state vivo del usuario. Idempotente.
func (l *Ledger) Delete(ctx context.Context, userID string) error {
	l.mu.Lock()
	delete(l.states, userID)
	l.mu.Unlock()
	return nil
}

// SetClockForTests reemplaza el reloj. Usar sólo en tests.
func (l *Ledger) SetClockForTests(now func() time.Time) { l.now = now }
