package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/config-registry/config-registry/internal/audit"
	"github.com/config-registry/config-registry/internal/db/models"
	"github.com/config-registry/config-registry/internal/db/repositories"
)

var errInjected = errors.New("injected failure")

// memState is the full contents of the fake database
type memState struct {
	nextID     int64
	namespaces map[int64]models.Namespace
	items      []models.Item
	commits    []models.Commit
	releases   []models.Release
	audits     []models.AuditLog
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:     s.nextID,
		namespaces: make(map[int64]models.Namespace, len(s.namespaces)),
		items:      append([]models.Item(nil), s.items...),
		commits:    append([]models.Commit(nil), s.commits...),
		releases:   append([]models.Release(nil), s.releases...),
		audits:     append([]models.AuditLog(nil), s.audits...),
	}
	for id, ns := range s.namespaces {
		c.namespaces[id] = ns
	}
	return c
}

// memDB is a transactional in-memory store. Transactions are serialized and roll back by
// restoring a snapshot. Failures are injected per operation name at a given call number.
type memDB struct {
	mu        sync.Mutex
	state     *memState
	templates map[string][]*models.AppNamespace

	// failAt maps an operation name to the 1-based call that fails
	failAt    map[string]int
	calls     map[string]int
	commitErr error

	// skipUniqueCheck makes GetByKey miss, to exercise the storage backstop
	skipUniqueCheck bool
}

func newMemDB() *memDB {
	return &memDB{
		state:     &memState{nextID: 100, namespaces: map[int64]models.Namespace{}},
		templates: map[string][]*models.AppNamespace{},
		failAt:    map[string]int{},
		calls:     map[string]int{},
	}
}

// failOn makes the n-th call of op return errInjected
func (m *memDB) failOn(op string, n int) {
	m.failAt[op] = n
}

func (m *memDB) hit(op string) error {
	m.calls[op]++
	if n, ok := m.failAt[op]; ok && m.calls[op] == n {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

// stores returns collaborators bound to m. Callers must hold m.mu.
func (m *memDB) stores() Stores {
	return Stores{
		Namespaces:    &memNamespaces{m},
		Items:         &memItems{m},
		Commits:       &memCommits{m},
		Releases:      &memReleases{m},
		AppNamespaces: &memCatalog{m},
		Audits:        &memAudits{m},
	}
}

// WithinTx implements Transactor
func (m *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(ctx, m.stores()); err != nil {
		m.state = snapshot
		return err
	}
	if m.commitErr != nil {
		m.state = snapshot
		return m.commitErr
	}
	return nil
}

// reader returns collaborators for non-transactional reads
func (m *memDB) reader() Stores {
	return Stores{Namespaces: &lockedNamespaces{m}}
}

// seedNamespace inserts a live namespace directly and returns its id
func (m *memDB) seedNamespace(appID, cluster, name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.nextID++
	id := m.state.nextID
	m.state.namespaces[id] = models.Namespace{
		ID: id, AppID: appID, ClusterName: cluster, NamespaceName: name,
		CreatedBy: "seed", LastModifiedBy: "seed",
	}
	return id
}

// seedChildren attaches n live items, commits and releases to a namespace
func (m *memDB) seedChildren(id int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := m.state.namespaces[id]
	for i := 0; i < n; i++ {
		m.state.items = append(m.state.items, models.Item{NamespaceID: id, Key: fmt.Sprintf("k%d", i)})
		m.state.commits = append(m.state.commits, models.Commit{AppID: ns.AppID, ClusterName: ns.ClusterName, NamespaceName: ns.NamespaceName})
		m.state.releases = append(m.state.releases, models.Release{AppID: ns.AppID, ClusterName: ns.ClusterName, NamespaceName: ns.NamespaceName})
	}
}

// ---------------------------------------------------------------------------
// Observations
// ---------------------------------------------------------------------------

func (m *memDB) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memDB) auditOps(op models.AuditOperation) []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLog
	for _, a := range m.state.audits {
		if a.Operation == op {
			out = append(out, a)
		}
	}
	return out
}

func (m *memDB) liveChildren(appID, cluster, name string, id int64) (items, commits, releases int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.state.items {
		if it.NamespaceID == id && !it.IsDeleted {
			items++
		}
	}
	for _, c := range m.state.commits {
		if c.AppID == appID && c.ClusterName == cluster && c.NamespaceName == name && !c.IsDeleted {
			commits++
		}
	}
	for _, r := range m.state.releases {
		if r.AppID == appID && r.ClusterName == cluster && r.NamespaceName == name && !r.IsDeleted {
			releases++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

type memNamespaces struct{ m *memDB }

func (s *memNamespaces) GetByID(_ context.Context, id int64) (*models.Namespace, error) {
	if err := s.m.hit("ns.get"); err != nil {
		return nil, err
	}
	ns, ok := s.m.state.namespaces[id]
	if !ok || ns.IsDeleted {
		return nil, nil
	}
	return &ns, nil
}

func (s *memNamespaces) GetByKey(_ context.Context, appID, cluster, name string) (*models.Namespace, error) {
	if err := s.m.hit("ns.get"); err != nil {
		return nil, err
	}
	if s.m.skipUniqueCheck {
		return nil, nil
	}
	for _, ns := range s.m.state.namespaces {
		if !ns.IsDeleted && ns.AppID == appID && ns.ClusterName == cluster && ns.NamespaceName == name {
			found := ns
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memNamespaces) ListByAppAndCluster(_ context.Context, appID, cluster string) ([]*models.Namespace, error) {
	if err := s.m.hit("ns.list"); err != nil {
		return nil, err
	}
	out := make([]*models.Namespace, 0)
	for _, ns := range s.m.state.namespaces {
		if !ns.IsDeleted && ns.AppID == appID && ns.ClusterName == cluster {
			found := ns
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memNamespaces) Create(_ context.Context, ns *models.Namespace) error {
	if err := s.m.hit("ns.create"); err != nil {
		return err
	}
	for _, existing := range s.m.state.namespaces {
		if !existing.IsDeleted && existing.Key() == ns.Key() {
			return repositories.ErrUniqueViolation
		}
	}
	s.m.state.nextID++
	ns.ID = s.m.state.nextID
	ns.IsDeleted = false
	ns.CreatedAt = time.Now()
	ns.LastModifiedAt = ns.CreatedAt
	s.m.state.namespaces[ns.ID] = *ns
	return nil
}

func (s *memNamespaces) Update(_ context.Context, ns *models.Namespace) error {
	if err := s.m.hit("ns.update"); err != nil {
		return err
	}
	existing, ok := s.m.state.namespaces[ns.ID]
	if !ok {
		return fmt.Errorf("namespace %d does not exist", ns.ID)
	}
	ns.CreatedBy = existing.CreatedBy
	ns.CreatedAt = existing.CreatedAt
	ns.LastModifiedAt = time.Now()
	s.m.state.namespaces[ns.ID] = *ns
	return nil
}

// lockedNamespaces serves reads outside a transaction
type lockedNamespaces struct{ m *memDB }

func (s *lockedNamespaces) GetByID(ctx context.Context, id int64) (*models.Namespace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return (&memNamespaces{s.m}).GetByID(ctx, id)
}

func (s *lockedNamespaces) GetByKey(ctx context.Context, appID, cluster, name string) (*models.Namespace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return (&memNamespaces{s.m}).GetByKey(ctx, appID, cluster, name)
}

func (s *lockedNamespaces) ListByAppAndCluster(ctx context.Context, appID, cluster string) ([]*models.Namespace, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return (&memNamespaces{s.m}).ListByAppAndCluster(ctx, appID, cluster)
}

func (s *lockedNamespaces) Create(context.Context, *models.Namespace) error {
	return errors.New("write outside transaction")
}

func (s *lockedNamespaces) Update(context.Context, *models.Namespace) error {
	return errors.New("write outside transaction")
}

type memItems struct{ m *memDB }

func (s *memItems) BatchDeleteByNamespaceID(_ context.Context, id int64, operator string) (int64, error) {
	if err := s.m.hit("items"); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.m.state.items {
		it := &s.m.state.items[i]
		if it.NamespaceID == id && !it.IsDeleted {
			it.IsDeleted = true
			it.LastModifiedBy = operator
			n++
		}
	}
	return n, nil
}

type memCommits struct{ m *memDB }

func (s *memCommits) BatchDelete(_ context.Context, appID, cluster, name, operator string) (int64, error) {
	if err := s.m.hit("commits"); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.m.state.commits {
		c := &s.m.state.commits[i]
		if c.AppID == appID && c.ClusterName == cluster && c.NamespaceName == name && !c.IsDeleted {
			c.IsDeleted = true
			c.LastModifiedBy = operator
			n++
		}
	}
	return n, nil
}

type memReleases struct{ m *memDB }

func (s *memReleases) BatchDelete(_ context.Context, appID, cluster, name, operator string) (int64, error) {
	if err := s.m.hit("releases"); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.m.state.releases {
		r := &s.m.state.releases[i]
		if r.AppID == appID && r.ClusterName == cluster && r.NamespaceName == name && !r.IsDeleted {
			r.IsDeleted = true
			r.LastModifiedBy = operator
			n++
		}
	}
	return n, nil
}

type memCatalog struct{ m *memDB }

func (s *memCatalog) ListPrivate(_ context.Context, appID string) ([]*models.AppNamespace, error) {
	if err := s.m.hit("catalog"); err != nil {
		return nil, err
	}
	out := make([]*models.AppNamespace, 0)
	for _, t := range s.m.templates[appID] {
		if !t.IsPublic && !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out, nil
}

type memAudits struct{ m *memDB }

func (s *memAudits) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	if err := s.m.hit("audit"); err != nil {
		return err
	}
	log.ID = fmt.Sprintf("audit-%d", len(s.m.state.audits)+1)
	log.CreatedAt = time.Now().UTC()
	s.m.state.audits = append(s.m.state.audits, *log)
	return nil
}

// ---------------------------------------------------------------------------
// Shipper double
// ---------------------------------------------------------------------------

// recordingShipper collects shipped entries on a channel
type recordingShipper struct {
	ch chan *audit.LogEntry
}

func newRecordingShipper() *recordingShipper {
	return &recordingShipper{ch: make(chan *audit.LogEntry, 64)}
}

func (r *recordingShipper) Ship(_ context.Context, e *audit.LogEntry) error {
	r.ch <- e
	return nil
}

func (r *recordingShipper) Close() error { return nil }
