// The streaming engine.
//
// Reader drives a cursor (the buffer), scanBoundary (record delimiting) and
// a logical Position. The working state for the current record is a single
// BufferPosition plus the resume offset of the boundary scan. Three things
// can happen when a record does not fit in what has been read so far:
//
//   - the record starts at offset 0: the buffer is too small, so it grows
//     according to the BufferPolicy;
//   - the record starts later: the bytes before it belong to records that
//     were already returned, so they are dropped and the window compacted;
//   - the source is exhausted: the buffer end is the record's end.
//
// Either way the buffer is refilled and scanning resumes where it stopped.
//
// Views returned by Next point into the buffer. Every call that can move or
// overwrite it bumps gen, which invalidates the views handed out before.
package fasta

import (
	"bytes"
	"io"
	"iter"

	"github.com/looplab/fsm"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Config holds Reader options. Zero values select the defaults.
type Config struct {
	Capacity int             // initial buffer size in bytes (default 64KB, minimum 3)
	Policy   BufferPolicy    // growth policy (default StandardPolicy)
	Logger   log.FieldLogger // debug output for growth and seeks (default logrus standard logger)
}

// Reader parses FASTA records from a byte source. It is not safe for
// concurrent use.
type Reader struct {
	cur     *cursor
	policy  BufferPolicy
	log     log.FieldLogger
	state   *fsm.FSM
	pos     Position       // logical position of the record at bpos
	bpos    BufferPosition // current record within the window
	search  int            // boundary scan resume offset
	pending bool           // bpos holds a complete record not yet advanced past
	synced  bool           // pos and bpos.Start refer to the same byte
	gen     uint64
	closers []io.Closer
}

// NewReader returns a Reader over src. Seek needs src to implement
// io.Seeker unless the target is still buffered.
func NewReader(src io.Reader, config Config) (*Reader, error) {
	if config.Capacity == 0 {
		config.Capacity = DefaultCapacity
	}
	if config.Capacity < MinCapacity {
		return nil, ErrCapacity
	}
	if config.Policy == nil {
		config.Policy = StandardPolicy{}
	}
	if config.Logger == nil {
		config.Logger = log.StandardLogger()
	}

	return &Reader{
		cur:    newCursor(src, config.Capacity),
		policy: config.Policy,
		log:    config.Logger,
		state:  newMachine(config.Logger),
		bpos:   BufferPosition{Lines: make([]int, 0, 1)},
	}, nil
}

// Next returns a view of the next record. It returns io.EOF once input is
// exhausted, and also after any error until Seek is called. The view is
// valid until the next call to Next, ReadRecordSet or Seek.
func (r *Reader) Next() (RecordView, error) {
	if r.done() {
		return RecordView{}, io.EOF
	}
	r.gen++

	if r.state.Is(stateNew) {
		ok, err := r.init()
		if err != nil {
			return RecordView{}, r.fail(err)
		}
		if !ok {
			r.event(eventFinish)
			return RecordView{}, io.EOF
		}
		r.event(eventStart)
	}

	if r.pending {
		r.advance()
	}
	if r.bpos.Start >= len(r.cur.window()) && r.cur.exhausted() {
		r.event(eventFinish)
		return RecordView{}, io.EOF
	}

	if err := r.extend(); err != nil {
		return RecordView{}, r.fail(err)
	}
	r.pending = true

	return RecordView{buf: r.cur.window(), pos: &r.bpos, gen: &r.gen, at: r.gen}, nil
}

// ReadRecordSet fills set with every complete record in the buffer after
// making sure at least one is present. The buffer is copied once; record
// positions are written into set's existing entries where possible. It
// returns io.EOF when no records remain.
func (r *Reader) ReadRecordSet(set *RecordSet) error {
	if r.done() {
		return io.EOF
	}
	r.gen++

	if r.state.Is(stateNew) {
		ok, err := r.init()
		if err != nil {
			return r.fail(err)
		}
		if !ok {
			r.event(eventFinish)
			return io.EOF
		}
		r.event(eventStart)
	}

	if r.pending {
		r.advance()
	}
	if r.bpos.Start >= len(r.cur.window()) && r.cur.exhausted() {
		r.event(eventFinish)
		return io.EOF
	}
	if err := r.extend(); err != nil {
		return r.fail(err)
	}

	set.load(r.cur.window())
	n := 0
	for {
		set.put(n, &r.bpos, r.pos)
		n++
		r.advance()
		if r.finished() || !r.scan() {
			break
		}
	}
	set.count = n
	return nil
}

// Seek moves the Reader to a record position previously obtained from
// Position, a RecordSet or an Index. When the target header is still in the
// buffer no I/O happens; otherwise the source is repositioned and the
// buffer refilled. Seek clears a finished or failed state. A seek refused
// with ErrNotSeekable leaves the Reader and its views untouched.
func (r *Reader) Seek(target Position) error {
	window := len(r.cur.window())
	delta := int64(target.Offset) - int64(r.pos.Offset)
	candidate := int64(r.bpos.Start) + delta
	if r.synced && candidate >= 0 && candidate < int64(window) {
		r.gen++
		r.pending = false
		r.bpos.reset(int(candidate))
		r.search = int(candidate)
		r.pos = target
		r.state.SetState(stateStreaming)
		return nil
	}

	if _, ok := r.cur.src.(io.Seeker); !ok {
		return ErrNotSeekable
	}

	r.log.WithFields(log.Fields{"line": target.Line, "offset": target.Offset}).Debug("seeking source")

	r.gen++
	r.pending = false
	r.pos = target
	r.search = 0
	r.bpos.reset(0)
	r.synced = false
	r.state.SetState(stateStreaming)

	if err := r.cur.seek(int64(target.Offset)); err != nil {
		return r.fail(ioError("seek", err))
	}
	if _, err := r.cur.fill(); err != nil {
		return r.fail(ioError("fill", err))
	}
	r.synced = true
	return nil
}

// Position returns the logical position of the record last returned by
// Next. ok is false when there is no such record.
func (r *Reader) Position() (pos Position, ok bool) {
	if !r.pending {
		return Position{}, false
	}
	return r.pos, true
}

// Records yields owned copies of the remaining records. Iteration stops
// after the first error.
func (r *Reader) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			view, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Record{}, err)
				return
			}
			if !yield(view.ToOwned(), nil) {
				return
			}
		}
	}
}

// Close releases sources opened on the Reader's behalf by Open. Readers
// built with NewReader leave their source to the caller.
func (r *Reader) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i].Close())
	}
	r.closers = nil
	r.event(eventFinish)
	r.gen++
	return err
}

// init skips blank lines up to the first header. It returns false for
// input with no non-blank line. A partial line at the end of the buffer is
// only judged once it is complete or the source is exhausted, so a lone
// '\r' split from its '\n' is never mistaken for a blank line too early.
func (r *Reader) init() (bool, error) {
	line := 0
	var skipped uint64

	for {
		if _, err := r.cur.fill(); err != nil {
			return false, ioError("fill", err)
		}
		buf := r.cur.window()

		from := 0
		for {
			i := bytes.IndexByte(buf[from:], newline)
			if i < 0 {
				break
			}
			line++
			if seg := buf[from : from+i]; !blank(seg) {
				return r.start(from, line, skipped, seg[0])
			}
			from += i + 1
		}

		if rest := buf[from:]; !blank(rest) {
			return r.start(from, line+1, skipped, rest[0])
		}
		if r.cur.exhausted() {
			return false, nil
		}

		r.cur.consume(from)
		r.cur.compact()
		skipped += uint64(from)
	}
}

// start anchors the first record at buffer offset at.
func (r *Reader) start(at, line int, skipped uint64, first byte) (bool, error) {
	if first != headerByte {
		return false, &StartError{Line: line, Found: first}
	}
	r.bpos.reset(at)
	r.pos = Position{Line: uint64(line), Offset: skipped + uint64(at)}
	r.search = at + 1
	r.synced = true
	return true, nil
}

// advance moves past the completed record: the logical position gains its
// lines and bytes and a new record starts at the resume offset.
func (r *Reader) advance() {
	r.pos.Line += uint64(len(r.bpos.Lines))
	r.pos.Offset += uint64(r.search - r.bpos.Start)
	r.bpos.reset(r.search)
	r.pending = false
}

// scan looks for the end of the current record in the buffered bytes only.
func (r *Reader) scan() bool {
	next, ok := scanBoundary(r.cur.window(), r.search, &r.bpos)
	r.search = next
	if ok {
		return true
	}
	if r.cur.exhausted() {
		closeBoundary(next, &r.bpos)
		r.event(eventFinish)
		return true
	}
	return false
}

// extend scans, and while the record is incomplete and the buffer full,
// grows or compacts and refills.
func (r *Reader) extend() error {
	for !r.scan() {
		if r.bpos.Start == 0 {
			if err := r.grow(); err != nil {
				return err
			}
		} else {
			r.makeRoom()
		}
		if _, err := r.cur.fill(); err != nil {
			return ioError("fill", err)
		}
	}
	return nil
}

func (r *Reader) grow() error {
	from := r.cur.capacity()
	if err := r.cur.grow(r.policy); err != nil {
		r.log.WithField("capacity", from).Debug("buffer growth refused")
		return err
	}
	r.log.WithFields(log.Fields{"from": from, "to": r.cur.capacity()}).Debug("buffer grown")
	return nil
}

// recordEnd returns the absolute offset just past the current record,
// including its final line terminator when there is one.
func (r *Reader) recordEnd() uint64 {
	last := min(r.bpos.Lines[len(r.bpos.Lines)-1]+1, len(r.cur.window()))
	return r.pos.Offset + uint64(last-r.bpos.Start)
}

// makeRoom drops everything before the current record.
func (r *Reader) makeRoom() {
	n := r.bpos.Start
	r.cur.consume(n)
	r.cur.compact()
	r.bpos.rebase(n)
	r.search -= n
}
