package solver

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// island is a set of constraints that share no movable body with any other
// island, so islands can be solved concurrently without synchronization.
type island struct {
	contacts []*contactConstraint
	joints   []*jointConstraint
}

// unionFind is a plain disjoint-set over body indices. Immovable bodies are
// excluded from unions: a shared static floor must not merge every stack on
// it into one island.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// partitionIslands groups the prepared constraints into disjoint islands.
// Constraint order inside each island follows the global deterministic
// order, so the solve result is independent of worker count.
func (s *Solver) partitionIslands() []island {
	u := newUnionFind(len(s.bodies))

	// Unions first so roots are final when assigning.
	for _, id := range s.order {
		c := s.contacts[id]
		if s.bodies[c.a].movable && s.bodies[c.b].movable {
			u.union(c.a, c.b)
		}
	}
	for _, j := range s.joints {
		if j.prepared && s.bodies[j.a].movable && s.bodies[j.b].movable {
			u.union(j.a, j.b)
		}
	}

	anchor := func(a, b int) int {
		if s.bodies[a].movable {
			return a
		}
		return b
	}

	islandOf := make(map[int]int)
	var islands []island
	islandFor := func(a, b int) *island {
		root := u.find(anchor(a, b))
		i, ok := islandOf[root]
		if !ok {
			i = len(islands)
			islandOf[root] = i
			islands = append(islands, island{})
		}
		return &islands[i]
	}

	for _, id := range s.order {
		c := s.contacts[id]
		isl := islandFor(c.a, c.b)
		isl.contacts = append(isl.contacts, c)
	}
	for _, j := range s.joints {
		if !j.prepared {
			continue
		}
		isl := islandFor(j.a, j.b)
		isl.joints = append(isl.joints, j)
	}
	return islands
}

// solveIslands runs the impulse schedule for every island, concurrently when
// more than one worker is configured.
func (s *Solver) solveIslands(ctx context.Context, islands []island) error {
	if s.cfg.Workers <= 1 || len(islands) <= 1 {
		for _, isl := range islands {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.solveIsland(isl.contacts, isl.joints)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, isl := range islands {
		isl := isl
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.solveIsland(isl.contacts, isl.joints)
			return nil
		})
	}
	return g.Wait()
}
