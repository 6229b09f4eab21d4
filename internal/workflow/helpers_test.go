package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spinozarabel/headstart-admission/internal/commerce"
	"github.com/spinozarabel/headstart-admission/internal/domain"
	"github.com/spinozarabel/headstart-admission/internal/events"
	"github.com/spinozarabel/headstart-admission/internal/lms"
	"github.com/spinozarabel/headstart-admission/internal/observability"
	"github.com/spinozarabel/headstart-admission/internal/ticketstore"
)

type productUpdate struct {
	id    int64
	name  string
	price string
}

type fakeCommerce struct {
	customers      map[string]*commerce.Customer
	customerErr    error
	orders         map[int64]*commerce.Order
	orderErr       error
	createErr      error
	created        []commerce.OrderRequest
	updated        map[int64][]commerce.OrderRequest
	productUpdates []productUpdate
	nextOrderID    int64
	calls          int
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		customers:   make(map[string]*commerce.Customer),
		orders:      make(map[int64]*commerce.Order),
		updated:     make(map[int64][]commerce.OrderRequest),
		nextOrderID: 9000,
	}
}

func (f *fakeCommerce) CustomerByEmail(_ context.Context, email string) (*commerce.Customer, error) {
	f.calls++
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.customers[email], nil
}

func (f *fakeCommerce) Order(_ context.Context, id int64) (*commerce.Order, error) {
	f.calls++
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	order, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d not found", id)
	}
	return order, nil
}

func (f *fakeCommerce) CreateOrder(_ context.Context, req commerce.OrderRequest) (*commerce.Order, error) {
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	f.nextOrderID++
	order := &commerce.Order{ID: f.nextOrderID, Status: "on-hold", MetaData: req.MetaData}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakeCommerce) UpdateOrder(_ context.Context, id int64, req commerce.OrderRequest) (*commerce.Order, error) {
	f.calls++
	f.updated[id] = append(f.updated[id], req)
	if order, ok := f.orders[id]; ok {
		return order, nil
	}
	return &commerce.Order{ID: id}, nil
}

func (f *fakeCommerce) UpdateProduct(_ context.Context, id int64, name, price string) error {
	f.calls++
	f.productUpdates = append(f.productUpdates, productUpdate{id: id, name: name, price: price})
	return nil
}

type cohortAdd struct {
	cohortID string
	userID   int64
}

type fakeLMS struct {
	usersByName map[string]*lms.User
	lookupErr   error
	createErr   error
	created     []lms.NewUser
	updated     []lms.ProfileUpdate
	cohortAdds  []cohortAdd
	nextUserID  int64
	calls       int
}

func newFakeLMS() *fakeLMS {
	return &fakeLMS{usersByName: make(map[string]*lms.User), nextUserID: 76}
}

func (f *fakeLMS) UserByUsername(_ context.Context, username string) (*lms.User, error) {
	f.calls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.usersByName[username], nil
}

func (f *fakeLMS) CreateUser(_ context.Context, u lms.NewUser) (int64, error) {
	f.calls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, u)
	f.nextUserID++
	f.usersByName[u.Username] = &lms.User{ID: f.nextUserID, Username: u.Username, Email: u.Email}
	return f.nextUserID, nil
}

func (f *fakeLMS) UpdateUser(_ context.Context, u lms.ProfileUpdate) error {
	f.calls++
	f.updated = append(f.updated, u)
	return nil
}

func (f *fakeLMS) AddCohortMember(_ context.Context, cohortID string, userID int64) error {
	f.calls++
	f.cohortAdds = append(f.cohortAdds, cohortAdd{cohortID: cohortID, userID: userID})
	return nil
}

func testOrder(id int64, status string) *commerce.Order {
	return &commerce.Order{ID: id, Status: status}
}

func testCategories() domain.CategorySettings {
	return domain.CategorySettings{
		Fees:         map[string]string{"external": "25000", "internal": "15000"},
		Descriptions: map[string]string{"external": "Admission fee payment for", "internal": "Admission fee payment for"},
		Cohorts:      map[string]string{"external": "admissions-external", "internal": "admissions-internal"},
	}
}

type testEnv struct {
	engine     *Engine
	store      *ticketstore.MemoryStore
	commerce   *fakeCommerce
	lms        *fakeLMS
	dispatcher events.Dispatcher
}

// newTestEnv wires an engine against the in-memory store and fakes. Jobs run
// inline on the caller's goroutine; the engine is not yet event-bound, so
// tests drive transitions explicitly unless they call bind().
func newTestEnv() *testEnv {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	store := ticketstore.NewMemoryStore(dispatcher)
	fc := newFakeCommerce()
	fl := newFakeLMS()
	engine := NewEngine(
		store, fc, fl,
		testCategories(),
		"headstart.edu.in",
		581,
		zap.NewNop(),
		observability.NewMetrics(prometheus.NewRegistry()),
	)
	return &testEnv{engine: engine, store: store, commerce: fc, lms: fl, dispatcher: dispatcher}
}

func (env *testEnv) bind() {
	env.engine.BindEvents(env.dispatcher)
}

func (env *testEnv) seedTicket(id int64, category string, status domain.Status, fields map[string]string) {
	env.store.Put(domain.Ticket{
		ID:        id,
		Subject:   fmt.Sprintf("Admission application %d", id),
		Category:  category,
		Status:    status,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, fields)
}

func applicantFields() map[string]string {
	return map[string]string{
		domain.FieldUsername:           "asha.rao",
		domain.FieldIDNumber:           "HS-2026-0042",
		domain.FieldStudentCategory:    "external",
		domain.FieldDepartment:         "primary",
		domain.FieldInstitution:        "head start educational academy",
		domain.FieldClass:              "grade-5",
		domain.FieldStudentFirstName:   "Asha",
		domain.FieldStudentLastName:    "Rao",
		domain.FieldResidentialAddress: "12 MG Road",
		domain.FieldCity:               "Bengaluru",
		domain.FieldState:              "Karnataka",
		domain.FieldPinCode:            "560001",
		domain.FieldCountry:            "IN",
		domain.FieldEmergencyContact:   "+91-9800000000",
		domain.FieldEmergencyAlternate: "+91-9811111111",
		domain.FieldMothersEmail:       "meera.rao@example.org",
		domain.FieldMothersContact:     "+91-9822222222",
		domain.FieldDateOfBirth:        "2015-06-14",
		domain.FieldPayerBankAccount:   "001234567890",
	}
}

func (env *testEnv) ticketStatus(id int64) domain.Status {
	t, err := env.store.Ticket(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return t.Status
}

func (env *testEnv) ticketField(id int64, slug string) string {
	v, err := env.store.Field(context.Background(), id, slug)
	if err != nil {
		panic(err)
	}
	return v
}
