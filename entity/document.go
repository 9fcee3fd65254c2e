// Package entity defines domain types shared across the application.

package entity

import (
	"sort"
	"strconv"
)

// Document is the whole persisted state: participants and payment proofs.
type Document struct {
	Users   map[string]*User           `json:"users" bson:"users"`
	Pending map[string]*PendingPayment `json:"pending" bson:"pending"`
}

func NewDocument() *Document {
	return &Document{
		Users:   make(map[string]*User),
		Pending: make(map[string]*PendingPayment),
	}
}

// Normalize fills missing maps and payment ids, so documents written by
// older versions (pending only, no ids inside records) stay readable.
func (d *Document) Normalize() *Document {
	if d.Users == nil {
		d.Users = make(map[string]*User)
	}
	if d.Pending == nil {
		d.Pending = make(map[string]*PendingPayment)
	}
	for key, p := range d.Pending {
		if p == nil {
			delete(d.Pending, key)
			continue
		}
		if p.PaymentId == "" {
			p.PaymentId = key
		}
	}
	for key, u := range d.Users {
		if u == nil {
			delete(d.Users, key)
		}
	}
	return d
}

func (d *Document) User(id int64) *User {
	return d.Users[UserKey(id)]
}

func (d *Document) PutUser(u *User) {
	d.Users[u.Key()] = u
}

// AddPayment stores a new payment without touching earlier entries: when the
// derived id is already taken a numeric suffix is appended.
func (d *Document) AddPayment(p *PendingPayment) string {
	id := p.PaymentId
	for n := 2; ; n++ {
		if _, taken := d.Pending[id]; !taken {
			break
		}
		id = p.PaymentId + "_" + strconv.Itoa(n)
	}
	p.PaymentId = id
	d.Pending[id] = p
	return id
}

// HasTicket reports whether any user already holds the ticket code.
func (d *Document) HasTicket(ticket string) bool {
	for _, u := range d.Users {
		if u.Ticket == ticket {
			return true
		}
	}
	return false
}

// OpenPayments returns PENDING payments, oldest first.
func (d *Document) OpenPayments() []*PendingPayment {
	list := make([]*PendingPayment, 0)
	for _, p := range d.Pending {
		if p.IsOpen() {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].PaymentId < list[j].PaymentId
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

// ApprovedUsers returns APPROVED users ordered by creation time.
func (d *Document) ApprovedUsers() []*User {
	list := make([]*User, 0)
	for _, u := range d.Users {
		if u.IsApproved() {
			list = append(list, u)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].UserId < list[j].UserId
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
