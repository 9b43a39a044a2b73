package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the decoded body of a VTN-issued JWT.
type Claims struct {
	Subject string     `json:"sub"`
	Roles   []AuthRole `json:"roles"`
	jwt.RegisteredClaims
}

// BusinessIDs is the result of resolving a caller's business-scoped roles:
// either a specific set of owned business ids, or Any (the caller holds
// AnyBusiness and sees every business's records).
type BusinessIDs struct {
	Any bool
	IDs []string
}

// BusinessIDs collects every business id the caller's roles resolve to. A
// single AnyBusiness role short-circuits to BusinessIDs{Any: true}.
func (c Claims) BusinessIDs() BusinessIDs {
	var ids []string
	for _, r := range c.Roles {
		switch r.Kind {
		case RoleAnyBusiness:
			return BusinessIDs{Any: true}
		case RoleBusiness:
			ids = append(ids, r.ID)
		}
	}
	return BusinessIDs{IDs: ids}
}

// VenIDs returns every VEN id the caller's roles grant.
func (c Claims) VenIDs() []string {
	var ids []string
	for _, r := range c.Roles {
		if r.Kind == RoleVEN {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func (c Claims) IsVen() bool {
	for _, r := range c.Roles {
		if r.IsVen() {
			return true
		}
	}
	return false
}

func (c Claims) IsBusiness() bool {
	for _, r := range c.Roles {
		if r.IsBusiness() {
			return true
		}
	}
	return false
}

func (c Claims) IsUserManager() bool {
	for _, r := range c.Roles {
		if r.IsUserManager() {
			return true
		}
	}
	return false
}

func (c Claims) IsVenManager() bool {
	for _, r := range c.Roles {
		if r.IsVenManager() {
			return true
		}
	}
	return false
}

// HasVen reports whether the caller holds the VEN(venID) role specifically.
func (c Claims) HasVen(venID string) bool {
	for _, r := range c.Roles {
		if r.Kind == RoleVEN && r.ID == venID {
			return true
		}
	}
	return false
}

// ResolveCreateBusinessID implements the Program-create business-id
// resolution rule (§5.4.3): exactly one business_id must be derivable from
// the caller's roles, either a single Business(x) role or AnyBusiness
// (business_id = nil). Two distinct Business(_) roles is a BadRequest.
func (c Claims) ResolveCreateBusinessID() (businessID *string, ok bool) {
	ids := c.BusinessIDs()
	if ids.Any {
		return nil, true
	}
	switch len(ids.IDs) {
	case 1:
		id := ids.IDs[0]
		return &id, true
	default:
		return nil, false
	}
}
