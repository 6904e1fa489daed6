package collide

import "github.com/go-gl/mathgl/mgl64"

// ContactID persistently identifies a contact point across steps. It packs
// the two collidable ids and mixes in stable feature indices (voxel cell or
// mesh vertex indices), so the same physical touch keeps the same id while
// the bodies slide against each other.
type ContactID uint64

// NewContactID packs two collidable ids into a base contact id.
func NewContactID(a, b ID) ContactID {
	return ContactID(uint64(a)<<32 | uint64(b))
}

// WithFeature mixes a stable feature index into the id.
func (id ContactID) WithFeature(feature uint32) ContactID {
	return ContactID(uint64(id)*31 + uint64(feature))
}

// Contact is one point of contact between two collidables. The normal is a
// world-space unit vector pointing in the direction that separates body A
// from body B; penetration is non-negative.
type Contact struct {
	ID          ContactID
	Position    mgl64.Vec3
	Normal      mgl64.Vec3
	Penetration float64
}

// maxManifoldContacts bounds the number of contacts kept per pair.
const maxManifoldContacts = 4

// Manifold is the set of contacts between one pair of collidables.
type Manifold struct {
	A, B     *Collidable
	Contacts []Contact
}

// Reset clears the manifold for reuse.
func (m *Manifold) Reset(a, b *Collidable) {
	m.A = a
	m.B = b
	m.Contacts = m.Contacts[:0]
}

// add inserts a contact, keeping only the deepest maxManifoldContacts.
func (m *Manifold) add(c Contact) {
	if len(m.Contacts) < maxManifoldContacts {
		m.Contacts = append(m.Contacts, c)
		return
	}
	shallowest := 0
	for i := 1; i < len(m.Contacts); i++ {
		if m.Contacts[i].Penetration < m.Contacts[shallowest].Penetration {
			shallowest = i
		}
	}
	if c.Penetration > m.Contacts[shallowest].Penetration {
		m.Contacts[shallowest] = c
	}
}
