package voxel

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Remesher rebuilds chunk meshes on a worker pool. Jobs are stamped with
// the chunk generation at submission; results whose chunk has moved on are
// discarded, so an installed mesh always matches a state the chunk actually
// had and a newer job is already queued for anything fresher.
type Remesher struct {
	logger  *zap.Logger
	workers int

	jobs    chan meshJob
	results chan meshResult
	pending int

	group  *errgroup.Group
	cancel context.CancelFunc
}

type meshJob struct {
	object     *Object
	shape      *CollisionShape
	coord      ChunkCoord
	generation uint64
}

type meshResult struct {
	shape *CollisionShape
	coord ChunkCoord
	mesh  *ChunkMesh
	ok    bool
}

// NewRemesher starts workers goroutines, each with its own scratch mesher.
// A nil logger disables logging.
func NewRemesher(workers int, logger *zap.Logger) *Remesher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	r := &Remesher{
		logger:  logger,
		workers: workers,
		jobs:    make(chan meshJob, 256),
		results: make(chan meshResult, 256),
		group:   g,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			mesher := NewMesher()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case job, open := <-r.jobs:
					if !open {
						return nil
					}
					r.runJob(ctx, mesher, job)
				}
			}
		})
	}
	return r
}

func (r *Remesher) runJob(ctx context.Context, mesher *Mesher, job meshJob) {
	mesh := &ChunkMesh{}
	ok := mesher.MeshChunk(job.object, job.coord, mesh)
	if ok && mesh.Generation != job.generation {
		// The chunk changed between submission and meshing; the result is
		// still a consistent snapshot, keep it.
		r.logger.Debug("chunk advanced during meshing",
			zap.Ints("chunk", job.coord[:]),
			zap.Uint64("submitted", job.generation),
			zap.Uint64("meshed", mesh.Generation))
	}
	select {
	case r.results <- meshResult{shape: job.shape, coord: job.coord, mesh: mesh, ok: ok}:
	case <-ctx.Done():
	}
}

// Submit queues one dirty chunk of the object for remeshing into the
// shape's mesh set.
func (r *Remesher) Submit(o *Object, shape *CollisionShape, coord ChunkCoord) {
	// Drain finished work first so a burst of submissions cannot fill both
	// channels and stall the pool.
	r.Collect()
	var generation uint64
	if c, ok := o.Chunk(coord); ok {
		generation = c.Generation()
	}
	r.pending++
	r.jobs <- meshJob{object: o, shape: shape, coord: coord, generation: generation}
}

// SubmitDirty queues every dirty chunk of the object and returns how many
// jobs were submitted.
func (r *Remesher) SubmitDirty(o *Object, shape *CollisionShape) int {
	coords := o.DirtyChunks()
	for _, coord := range coords {
		r.Submit(o, shape, coord)
	}
	return len(coords)
}

// Collect installs finished meshes without blocking and returns how many
// were applied.
func (r *Remesher) Collect() int {
	applied := 0
	for {
		select {
		case res := <-r.results:
			r.apply(res)
			applied++
		default:
			return applied
		}
	}
}

// Wait blocks until every submitted job has been collected. Used for
// synchronous meshing, where collisions must see the current surface.
func (r *Remesher) Wait() {
	for r.pending > 0 {
		res := <-r.results
		r.apply(res)
	}
}

func (r *Remesher) apply(res meshResult) {
	r.pending--
	if !res.ok {
		// The chunk disappeared; drop any stale mesh.
		res.shape.DropMesh(res.coord)
		return
	}
	res.shape.InstallMesh(res.mesh)
}

// Close stops the workers. Pending jobs may be abandoned.
func (r *Remesher) Close() {
	r.cancel()
	close(r.jobs)
	_ = r.group.Wait()
}
