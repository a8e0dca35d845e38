package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
)

// MemoryStore keeps every collection in process. Documents go through a bson
// round trip on the way in and out, so callers never share memory with the
// store and values are truncated the way MongoDB truncates them.
type MemoryStore struct {
	mu       sync.RWMutex
	sequence int64
	claimed  bool
	products map[primitive.ObjectID]models.Product
	orders   map[primitive.ObjectID]models.Order
	users    map[primitive.ObjectID]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[primitive.ObjectID]models.Product),
		orders:   make(map[primitive.ObjectID]models.Order),
		users:    make(map[primitive.ObjectID]models.User),
	}
}

func (m *MemoryStore) Products() *MemoryProducts { return &MemoryProducts{store: m} }
func (m *MemoryStore) Orders() *MemoryOrders     { return &MemoryOrders{store: m} }
func (m *MemoryStore) Users() *MemoryUsers       { return &MemoryUsers{store: m} }
func (m *MemoryStore) Reports() *MemoryReports   { return &MemoryReports{store: m} }

func clone[T any](in T) (T, error) {
	var out T
	raw, err := bson.Marshal(in)
	if err != nil {
		return out, fmt.Errorf("encoding document: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding document: %w", err)
	}
	return out, nil
}

func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func inRange(t time.Time, r DateRange) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Ensure interfaces
var (
	_ ProductRepository = (*MemoryProducts)(nil)
	_ OrderRepository   = (*MemoryOrders)(nil)
	_ UserRepository    = (*MemoryUsers)(nil)
	_ ReportRepository  = (*MemoryReports)(nil)
)

type MemoryProducts struct{ store *MemoryStore }

func (mp *MemoryProducts) Create(ctx context.Context, product *models.Product) error {
	stored, err := clone(*product)
	if err != nil {
		return err
	}
	mp.store.mu.Lock()
	defer mp.store.mu.Unlock()
	if _, ok := mp.store.products[product.ID]; ok {
		return apperrors.Conflict("product already exists")
	}
	mp.store.products[product.ID] = stored
	return nil
}

func (mp *MemoryProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperrors.NotFound("product not found")
	}
	mp.store.mu.RLock()
	p, ok := mp.store.products[oid]
	mp.store.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("product not found")
	}
	cp, err := clone(p)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (mp *MemoryProducts) ExistsByNameAndCategory(ctx context.Context, name string, category models.Category) (bool, error) {
	mp.store.mu.RLock()
	defer mp.store.mu.RUnlock()
	for _, p := range mp.store.products {
		if p.Name == name && p.Category == category {
			return true, nil
		}
	}
	return false, nil
}

func (mp *MemoryProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	search := strings.ToLower(f.Search)
	mp.store.mu.RLock()
	out := make([]models.Product, 0, len(mp.store.products))
	for _, p := range mp.store.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Available != nil && p.Available != *f.Available {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	mp.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		cp, err := clone(out[i])
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

func (mp *MemoryProducts) Update(ctx context.Context, product *models.Product) error {
	stored, err := clone(*product)
	if err != nil {
		return err
	}
	mp.store.mu.Lock()
	defer mp.store.mu.Unlock()
	if _, ok := mp.store.products[product.ID]; !ok {
		return apperrors.NotFound("product not found")
	}
	mp.store.products[product.ID] = stored
	return nil
}

func (mp *MemoryProducts) Categories(ctx context.Context) ([]models.Category, error) {
	mp.store.mu.RLock()
	defer mp.store.mu.RUnlock()
	seen := make(map[models.Category]bool)
	out := []models.Category{}
	for _, p := range mp.store.products {
		if p.Available && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

type MemoryOrders struct{ store *MemoryStore }

func (mo *MemoryOrders) NextNumber(ctx context.Context) (int64, error) {
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	mo.store.sequence++
	return mo.store.sequence, nil
}

func (mo *MemoryOrders) Create(ctx context.Context, order *models.Order) error {
	stored, err := clone(*order)
	if err != nil {
		return err
	}
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	for _, existing := range mo.store.orders {
		if existing.Number == order.Number {
			return apperrors.Conflict("order number %s already exists", order.Number)
		}
	}
	mo.store.orders[order.ID] = stored
	return nil
}

func (mo *MemoryOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	mo.store.mu.RLock()
	o, ok := mo.store.orders[oid]
	mo.store.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	cp, err := clone(o)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func matchesOrder(o models.Order, f OrderFilter) bool {
	if f.Active != nil && o.Active != *f.Active {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	return inRange(o.Created_at, DateRange{From: f.From, To: f.To})
}

func (mo *MemoryOrders) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	mo.store.mu.RLock()
	out := make([]models.Order, 0)
	for _, o := range mo.store.orders {
		if matchesOrder(o, f) {
			out = append(out, o)
		}
	}
	mo.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if f.OldestFirst {
			return out[i].Created_at.Before(out[j].Created_at)
		}
		return out[i].Created_at.After(out[j].Created_at)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	for i := range out {
		cp, err := clone(out[i])
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, id string, change OrderChange) (*models.Order, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	mo.store.mu.Lock()
	defer mo.store.mu.Unlock()
	stored, ok := mo.store.orders[oid]
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	if stored.Status != change.From {
		return nil, apperrors.InvalidOrderState("order is no longer %s, it was changed by another request", change.From)
	}
	if change.Status != nil {
		stored.Status = *change.Status
		if change.Stamp != nil {
			stored.Times.StampStatus(*change.Status, *change.Stamp)
		}
	}
	if change.Active != nil {
		stored.Active = *change.Active
	}
	if change.Customer != nil {
		stored.Customer = *change.Customer
	}
	if change.Notes != nil {
		stored.Notes = *change.Notes
	}
	stored.Updated_at = change.UpdatedAt
	saved, err := clone(stored)
	if err != nil {
		return nil, err
	}
	mo.store.orders[oid] = saved
	out, err := clone(saved)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type MemoryUsers struct{ store *MemoryStore }

func (us *MemoryUsers) emailTaken(email string, except primitive.ObjectID) bool {
	for id, u := range us.store.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (us *MemoryUsers) Create(ctx context.Context, user *models.User) error {
	stored, err := clone(*user)
	if err != nil {
		return err
	}
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	if us.emailTaken(user.Email, user.ID) {
		return apperrors.Conflict("an account with this email already exists")
	}
	us.store.users[user.ID] = stored
	return nil
}

func (us *MemoryUsers) find(match func(models.User) bool) (*models.User, error) {
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	for _, u := range us.store.users {
		if match(u) {
			cp, err := clone(u)
			if err != nil {
				return nil, err
			}
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (us *MemoryUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	return us.find(func(u models.User) bool { return u.ID == oid })
}

func (us *MemoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return us.find(func(u models.User) bool { return u.Email == email })
}

func (us *MemoryUsers) List(ctx context.Context) ([]models.User, error) {
	us.store.mu.RLock()
	out := make([]models.User, 0, len(us.store.users))
	for _, u := range us.store.users {
		out = append(out, u)
	}
	us.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	for i := range out {
		cp, err := clone(out[i])
		if err != nil {
			return nil, err
		}
		out[i] = cp
	}
	return out, nil
}

func (us *MemoryUsers) Update(ctx context.Context, id string, change UserChange) (*models.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	stored, ok := us.store.users[oid]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	if change.IfPassword != "" && stored.Password != change.IfPassword {
		return nil, apperrors.Conflict("the password was changed by another request")
	}
	if change.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*change.Email))
		if us.emailTaken(email, oid) {
			return nil, apperrors.Conflict("an account with this email already exists")
		}
		stored.Email = email
	}
	if change.Name != nil {
		stored.Name = *change.Name
	}
	if change.Role != nil {
		stored.Role = *change.Role
	}
	if change.Active != nil {
		stored.Active = *change.Active
	}
	if change.Password != nil {
		stored.Password = *change.Password
	}
	if change.SoundNotifications != nil {
		stored.Settings.SoundNotifications = *change.SoundNotifications
	}
	if change.PreferredView != nil {
		stored.Settings.PreferredView = *change.PreferredView
	}
	if change.LastLogin != nil {
		at := *change.LastLogin
		stored.Last_login = &at
	}
	stored.Updated_at = change.UpdatedAt
	saved, err := clone(stored)
	if err != nil {
		return nil, err
	}
	us.store.users[oid] = saved
	out, err := clone(saved)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimFirstAccount reports true to exactly one caller over the store's life.
func (us *MemoryUsers) ClaimFirstAccount(ctx context.Context) (bool, error) {
	us.store.mu.Lock()
	defer us.store.mu.Unlock()
	if us.store.claimed {
		return false, nil
	}
	us.store.claimed = true
	return true, nil
}

func (us *MemoryUsers) Count(ctx context.Context) (int64, error) {
	us.store.mu.RLock()
	defer us.store.mu.RUnlock()
	return int64(len(us.store.users)), nil
}

// MemoryReports computes the aggregation results in Go with the same
// grouping, ordering and labels as the MongoDB pipelines.
type MemoryReports struct{ store *MemoryStore }

func (mr *MemoryReports) delivered(r DateRange) []models.Order {
	mr.store.mu.RLock()
	defer mr.store.mu.RUnlock()
	out := make([]models.Order, 0)
	for _, o := range mr.store.orders {
		if o.Status == models.StatusDelivered && o.Active && inRange(o.Created_at, r) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created_at.Before(out[j].Created_at) })
	return out
}

func (mr *MemoryReports) SalesByPeriod(ctx context.Context, r DateRange, grouping Grouping, loc *time.Location) ([]SalesBucket, error) {
	if loc == nil {
		loc = time.UTC
	}
	byLabel := make(map[string]*SalesBucket)
	for _, o := range mr.delivered(r) {
		label := o.Created_at.In(loc).Format(grouping.goLayout())
		b, ok := byLabel[label]
		if !ok {
			b = &SalesBucket{Label: label}
			byLabel[label] = b
		}
		b.Revenue = b.Revenue.Add(o.Payment.Total)
		b.Orders++
	}
	out := make([]SalesBucket, 0, len(byLabel))
	for _, b := range byLabel {
		b.AverageTicket = b.Revenue.Div(b.Orders)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (mr *MemoryReports) TopProducts(ctx context.Context, r DateRange, limit int) ([]ProductSales, error) {
	type acc struct {
		sales ProductSales
		lines int
	}
	byProduct := make(map[primitive.ObjectID]*acc)
	for _, o := range mr.delivered(r) {
		for _, item := range o.Items {
			a, ok := byProduct[item.Product_id]
			if !ok {
				a = &acc{sales: ProductSales{ProductID: item.Product_id.Hex(), Name: item.Product_name}}
				byProduct[item.Product_id] = a
			}
			a.sales.Quantity += item.Quantity
			a.sales.Revenue = a.sales.Revenue.Add(item.Price)
			a.lines++
		}
	}

	mr.store.mu.RLock()
	out := make([]ProductSales, 0, len(byProduct))
	for id, a := range byProduct {
		if p, ok := mr.store.products[id]; ok {
			a.sales.Category = p.Category
		}
		a.sales.AveragePrice = a.sales.Revenue.Div(a.lines)
		out = append(out, a.sales)
	}
	mr.store.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue.Decimal)
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (mr *MemoryReports) SalesByChannel(ctx context.Context, r DateRange) ([]ChannelSales, error) {
	byChannel := make(map[models.Channel]*ChannelSales)
	for _, o := range mr.delivered(r) {
		c, ok := byChannel[o.Channel]
		if !ok {
			c = &ChannelSales{Channel: o.Channel}
			byChannel[o.Channel] = c
		}
		c.Orders++
		c.Revenue = c.Revenue.Add(o.Payment.Total)
	}
	out := make([]ChannelSales, 0, len(byChannel))
	for _, c := range byChannel {
		c.AverageTicket = c.Revenue.Div(c.Orders)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue.Decimal)
		}
		return out[i].Channel < out[j].Channel
	})
	return out, nil
}
