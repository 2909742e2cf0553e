package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jredh-dev/foodbridge/internal/apperr"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

// Memory is an in-memory Store guarded by a single RWMutex. It implements
// the same compare-and-set semantics as the Firestore store, which makes it
// a faithful stand-in for unit tests and STORE_DRIVER=memory development.
type Memory struct {
	mu sync.RWMutex

	users         map[string]*models.User
	donations     map[string]*models.Donation
	notifications map[string]*models.Notification
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*models.User),
		donations:     make(map[string]*models.Donation),
		notifications: make(map[string]*models.Notification),
	}
}

// --- User operations ---

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.EmailHash == u.EmailHash {
			return apperr.Conflict("email already registered")
		}
	}

	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) UserByEmailHash(_ context.Context, hash string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.EmailHash == hash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) UserByResetToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFound("user %s", u.ID)
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user %s", id)
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) ListUsers(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.User
	for _, u := range m.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListVolunteersByOrg(_ context.Context, orgKey string) ([]models.User, error) {
	if orgKey == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.User
	for _, u := range m.users {
		if u.Role == models.RoleVolunteer && u.OrgKey == orgKey {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- Donation operations ---

func (m *Memory) CreateDonation(_ context.Context, d *models.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.donations[d.ID] = &cp
	return nil
}

func (m *Memory) DonationByID(_ context.Context, id string) (*models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.donations[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *Memory) UpdateDonationIf(_ context.Context, id string, expect []models.DonationStatus, mutate func(*models.Donation)) (*models.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.donations[id]
	if !ok {
		return nil, apperr.NotFound("donation %s", id)
	}

	matched := false
	for _, s := range expect {
		if d.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, apperr.Conflict("donation %s is %s", id, d.Status)
	}

	cp := *d
	mutate(&cp)
	m.donations[id] = &cp

	out := cp
	return &out, nil
}

func (m *Memory) DeleteDonation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.donations[id]; !ok {
		return apperr.NotFound("donation %s", id)
	}
	delete(m.donations, id)
	return nil
}

func (m *Memory) ListByDonor(_ context.Context, donorID string) ([]models.Donation, error) {
	return m.listDonations(func(d *models.Donation) bool { return d.DonorID == donorID }, byCreatedDesc)
}

func (m *Memory) ListByNgo(_ context.Context, ngoID string) ([]models.Donation, error) {
	return m.listDonations(func(d *models.Donation) bool { return d.NgoID == ngoID }, byAcceptedDesc)
}

func (m *Memory) ListByVolunteer(_ context.Context, volunteerID string) ([]models.Donation, error) {
	return m.listDonations(func(d *models.Donation) bool { return d.VolunteerID == volunteerID }, byCreatedDesc)
}

func (m *Memory) ListByStatus(_ context.Context, status models.DonationStatus) ([]models.Donation, error) {
	return m.listDonations(func(d *models.Donation) bool { return d.Status == status }, byCreatedDesc)
}

func (m *Memory) ListAll(_ context.Context) ([]models.Donation, error) {
	return m.listDonations(func(*models.Donation) bool { return true }, byCreatedDesc)
}

func (m *Memory) listDonations(keep func(*models.Donation) bool, less func(a, b *models.Donation) bool) ([]models.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Donation
	for _, d := range m.donations {
		if keep(d) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out, nil
}

func byCreatedDesc(a, b *models.Donation) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func byAcceptedDesc(a, b *models.Donation) bool {
	switch {
	case a.AcceptedAt == nil:
		return false
	case b.AcceptedAt == nil:
		return true
	default:
		return a.AcceptedAt.After(*b.AcceptedAt)
	}
}

// --- Notification operations ---

func (m *Memory) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *Memory) NotificationByID(_ context.Context, id string) (*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (m *Memory) ListByRecipient(_ context.Context, recipientID string) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return apperr.NotFound("notification %s", id)
	}
	n.Read = true
	return nil
}
