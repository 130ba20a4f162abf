package booking

import (
	"sync"
	"time"
)

// State names one step of a bot dialog.
type State string

// Client appointment flow.
const (
	StateIdle          State = "idle"
	StateSelectService State = "select_service"
	StateSelectBarber  State = "select_barber"
	StateSelectDate    State = "select_date"
	StateSelectTime    State = "select_time"
	StateConfirm       State = "confirm"
	StateComplete      State = "complete"
	StateCanceled      State = "canceled"
)

// Admin form flows.
const (
	StateAdminBarberName     State = "admin_barber_name"
	StateAdminBarberAbout    State = "admin_barber_about"
	StateAdminServiceName    State = "admin_service_name"
	StateAdminServiceTiming  State = "admin_service_timing"
	StateAdminServicePrice   State = "admin_service_price"
	StateAdminScheduleBarber State = "admin_schedule_barber"
	StateAdminScheduleDate   State = "admin_schedule_date"
	StateAdminStatsRange     State = "admin_stats_range"
)

// Draft accumulates the data collected across a dialog. Each flow uses the
// fields it needs; transitions validate what must already be set.
type Draft struct {
	UserID      int64
	ServiceID   int64
	ServiceName string
	BarberID    int64
	BarberName  string
	Date        string
	TimeSlot    string

	// Admin form accumulators.
	FormName     string
	FormAbout    string
	FormDuration int
	FormPrice    int
}

// Session is one user's dialog position.
type Session struct {
	UserID    int64
	State     State
	Draft     Draft
	StartedAt time.Time
	UpdatedAt time.Time
	mu        sync.Mutex
}

func newSession(userID int64) *Session {
	now := time.Now()
	return &Session{
		UserID:    userID,
		State:     StateIdle,
		Draft:     Draft{UserID: userID},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// SetState updates the session state.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
	s.UpdatedAt = time.Now()
}

// GetState returns the current state.
func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State
}

// Expired reports whether the session has been idle longer than timeout.
func (s *Session) Expired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > timeout
}

// SessionStore holds per-user dialog sessions in memory.
type SessionStore struct {
	sessions map[int64]*Session
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewSessionStore creates a store with the given expiry timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[int64]*Session),
		timeout:  timeout,
	}
}

// Get returns the user's session or nil.
func (ss *SessionStore) Get(userID int64) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s := ss.sessions[userID]
	if s != nil && s.Expired(ss.timeout) {
		return nil
	}
	return s
}

// GetOrCreate returns the existing session or starts a fresh one.
func (ss *SessionStore) GetOrCreate(userID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[userID]
	if ok && !s.Expired(ss.timeout) {
		return s
	}
	s = newSession(userID)
	ss.sessions[userID] = s
	return s
}

// Reset replaces the user's session with a fresh one and returns it.
func (ss *SessionStore) Reset(userID int64) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s := newSession(userID)
	ss.sessions[userID] = s
	return s
}

// Delete removes a session.
func (ss *SessionStore) Delete(userID int64) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, userID)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	removed := 0
	for userID, s := range ss.sessions {
		if s.Expired(ss.timeout) {
			delete(ss.sessions, userID)
			removed++
		}
	}
	return removed
}

// FSM validates dialog state transitions.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates the FSM with the client and admin flow transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateIdle:          {StateSelectService, StateAdminBarberName, StateAdminServiceName, StateAdminScheduleBarber, StateAdminStatsRange},
			StateSelectService: {StateSelectBarber, StateCanceled},
			StateSelectBarber:  {StateSelectDate, StateSelectService, StateCanceled},
			StateSelectDate:    {StateSelectTime, StateSelectBarber, StateCanceled},
			StateSelectTime:    {StateConfirm, StateSelectDate, StateCanceled},
			StateConfirm:       {StateComplete, StateSelectTime, StateCanceled},
			StateComplete:      {StateIdle},
			StateCanceled:      {StateIdle},

			StateAdminBarberName:     {StateAdminBarberAbout, StateCanceled},
			StateAdminBarberAbout:    {StateComplete, StateCanceled},
			StateAdminServiceName:    {StateAdminServiceTiming, StateCanceled},
			StateAdminServiceTiming:  {StateAdminServicePrice, StateCanceled},
			StateAdminServicePrice:   {StateComplete, StateCanceled},
			StateAdminScheduleBarber: {StateAdminScheduleDate, StateCanceled},
			StateAdminScheduleDate:   {StateComplete, StateCanceled},
			StateAdminStatsRange:     {StateComplete, StateCanceled},
		},
	}
}

// CanTransition checks whether a transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the session to the new state when allowed.
func (f *FSM) Transition(session *Session, to State) bool {
	if !f.CanTransition(session.GetState(), to) {
		return false
	}
	session.SetState(to)
	return true
}
