// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gbamcompress implements a bounded, ordered-at-the-edges
// parallel compression pipeline: a fixed pool of worker goroutines
// compresses submitted blocks independently of each other. Results
// surface in whatever order they complete — ordering across fields is
// irrelevant, and ordering within a field is re-established by the
// caller at sink time using each result's self-describing (Field,
// BlockNum) key, not by this package.
//
// The goroutine/channel shape is grounded on
// encoding/bam/shardedbam.go's ShardedBAMWriter (dedicated writer
// goroutine draining a bounded queue built with sync.WaitGroup); the
// "caller resequences, workers stay unordered" principle is grounded
// on other_examples/...recordio-writerv2.go.go's flushQueue, which
// reassembles out-of-order flushes using a sequence map — GBAM's
// orchestrator performs that reassembly itself (biogbam.Writer.sink),
// so this package only needs to produce the out-of-order results. The
// recycle pool is grounded on encoding/pam/fieldio.WriteBufPool: a
// fixed number of scratch buffers are pre-seeded into a
// syncqueue.LIFO, checked out before a flush and checked back in once
// a worker is done with them, so the pool doubles as a bound on the
// number of blocks in flight.
package gbamcompress

import (
	"sync"

	"github.com/grailbio/base/syncqueue"
	"github.com/grailbio/gbam/biogbam/gbamcodec"
	"github.com/grailbio/gbam/biogbam/gbamio"
)

// CompressTask is one completed compression result.
type CompressTask struct {
	Info  gbamio.BlockInfo
	Codec gbamcodec.Codec
	Buf   []byte // compressed payload
}

type job struct {
	info    gbamio.BlockInfo
	payload []byte
	codec   gbamcodec.Codec
}

// scratchCap is the initial capacity of a pre-seeded scratch buffer.
// It is a hint, not a hard bound; Inner.WriteData grows a buffer as
// needed regardless of where it came from.
const scratchCap = 64 << 10

// Pipeline is a bounded pool of compression workers. It is meant to be
// driven by a single writer goroutine: Submit, GetCompleted,
// GetRecycleBuffer and Finish are not safe to call concurrently with
// each other.
type Pipeline struct {
	jobs       chan job
	results    chan CompressTask
	recycle    *syncqueue.LIFO
	recycleCap int
	wg         sync.WaitGroup
	err        error
	errOnce    sync.Once
}

// NewPipeline starts workers goroutines and returns a ready pipeline.
// queueDepth bounds the job and result queues. fields is the number of
// distinct column buffers (Inners) the caller may have flushing at
// once; the recycle pool is sized to workers*fields, matching
// fieldio.NewBufPool(parallelism*nWrittenFields) — every field can
// hold one checked-out buffer between flushes, and up to `workers` of
// those flushes can be compressing concurrently, so the pool must
// cover both dimensions or GetRecycleBuffer can block forever once
// every field has flushed at least once.
func NewPipeline(workers, queueDepth, fields int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth <= 0 {
		queueDepth = workers
	}
	if fields <= 0 {
		fields = 1
	}
	p := &Pipeline{
		jobs:       make(chan job, queueDepth),
		results:    make(chan CompressTask, queueDepth),
		recycle:    syncqueue.NewLIFO(),
		recycleCap: workers * fields,
	}
	for i := 0; i < p.recycleCap; i++ {
		p.recycle.Put(make([]byte, 0, scratchCap))
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *Pipeline) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		compressed, err := gbamcodec.Encode(j.codec, j.payload)
		if err != nil {
			p.errOnce.Do(func() { p.err = err })
			compressed = nil
		}
		p.results <- CompressTask{Info: j.info, Codec: j.codec, Buf: compressed}
		// The payload buffer's compressed copy is independent, so its
		// backing array can be recycled as soon as compression is done.
		p.recycle.Put(j.payload[:0])
	}
}

// Submit enqueues a compression job. It blocks if the job queue is full.
func (p *Pipeline) Submit(info gbamio.BlockInfo, payload []byte, codec gbamcodec.Codec) {
	p.jobs <- job{info: info, payload: payload, codec: codec}
}

// GetRecycleBuffer checks out a scratch buffer from the recycle pool,
// blocking until one is available. Its blocking behavior is what
// bounds the number of blocks in flight to the pool's capacity.
func (p *Pipeline) GetRecycleBuffer() []byte {
	v, ok := p.recycle.Get()
	if !ok {
		return make([]byte, 0, scratchCap)
	}
	return v.([]byte)
}

// TryGetCompleted returns a completed result without blocking, or
// ok == false if none is ready yet.
func (p *Pipeline) TryGetCompleted() (CompressTask, bool) {
	select {
	case t := <-p.results:
		return t, true
	default:
		return CompressTask{}, false
	}
}

// GetCompleted blocks until a result is available.
func (p *Pipeline) GetCompleted() CompressTask {
	return <-p.results
}

// Finish closes the job queue, waits for in-flight jobs to drain, and
// returns every remaining completed result. After Finish returns, the
// pipeline must not be used again.
//
// The drain runs concurrently with wg.Wait rather than after it: if
// the number of jobs still in the queue when Finish is called exceeds
// the results channel's capacity, a worker blocked sending a result
// would otherwise never unblock, since nothing would be reading from
// results until after wg.Wait returned — a deadlock between the
// workers and Finish itself.
func (p *Pipeline) Finish() ([]CompressTask, error) {
	close(p.jobs)
	closed := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(p.results)
		close(closed)
	}()
	var tasks []CompressTask
	for t := range p.results {
		tasks = append(tasks, t)
	}
	<-closed
	for i := 0; i < p.recycleCap; i++ {
		p.recycle.Get()
	}
	return tasks, p.err
}

// Err returns the first codec error encountered by any worker, if any.
// The caller should stop submitting new work and call Finish.
func (p *Pipeline) Err() error {
	return p.err
}
