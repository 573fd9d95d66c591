// Package atlas implements a bucketed shelf-packing dynamic texture atlas
// allocator, inspired by https://github.com/mapbox/shelf-pack.
//
// Items are accumulated into buckets which are laid out in rows (shelves)
// of variable height. When allocating, the allocator first looks for a
// suitable bucket; if none is found, a new shelf of the desired height is
// pushed.
//
// Lifetime isn't tracked at item granularity. Instead, items are grouped
// into buckets and deallocation happens per bucket, once every item of the
// bucket has been released. When the top-most shelf is empty, it is
// removed, potentially cascading into garbage-collecting the next shelf,
// and so on.
//
// This allocator works well when there are a lot of small items of similar
// sizes (typically, glyph or sprite atlases). It is single-threaded and
// synchronous: no operation here blocks or yields, and no state outlives
// the Allocator that owns it.
package atlas

import "fmt"

const (
	binBits  = 12
	itemBits = 12
	genBits  = 8

	binMask  = uint32(1)<<binBits - 1
	itemMask = (uint32(1)<<itemBits - 1) << binBits
	genMask  = (uint32(1)<<genBits - 1) << (binBits + itemBits)

	maxItemsPerBin = uint16(itemMask >> binBits)
	maxBinCount    = int(binMask)
	maxShelfCount  = int(^uint16(0))
)

// bucketIndex is an index into Allocator.buckets, or bucketInvalid.
type bucketIndex uint16

const bucketInvalid = bucketIndex(^uint16(0))

// Size is a two-dimensional extent of up to 16-bit-representable
// dimensions, in pixel units.
type Size struct {
	Width, Height int32
}

// Point is a two-dimensional pixel coordinate.
type Point struct {
	X, Y int32
}

// Rectangle is a half-open axis-aligned pixel rectangle: [Min, Max).
type Rectangle struct {
	Min, Max Point
}

// Size returns the width and height of r.
func (r Rectangle) Size() Size {
	return Size{Width: r.Max.X - r.Min.X, Height: r.Max.Y - r.Min.Y}
}

// Area returns the area of r.
func (r Rectangle) Area() int32 {
	s := r.Size()
	return s.Width * s.Height
}

// Options configures an Allocator.
type Options struct {
	// Alignment rounds allocation widths and heights up to these
	// multiples before placement.
	Alignment Size
	// NumColumns splits the atlas width into this many independently
	// packed columns.
	NumColumns int32
	// VerticalShelves runs shelves along the x axis instead of y.
	VerticalShelves bool
}

// DefaultOptions is used by New.
var DefaultOptions = Options{
	Alignment:  Size{Width: 1, Height: 1},
	NumColumns: 1,
}

type shelf struct {
	x, y        uint16
	height      uint16
	bucketWidth uint16

	firstBucket bucketIndex
}

type bucket struct {
	x         uint16
	freeSpace uint16

	next bucketIndex

	// refcount drops to zero when every item of the bucket has been
	// deallocated; the bucket is then recyclable.
	refcount uint16
	// itemCount only ever grows while the bucket is live; it exists so
	// that allocation handles are unique within a bucket's generation.
	itemCount  uint16
	shelf      uint16
	generation uint8
}

// Allocator packs axis-aligned rectangles into a fixed region, supports
// per-bucket bulk deallocation, and reuses freed area. It is not safe for
// concurrent use.
type Allocator struct {
	shelves []shelf
	buckets []bucket

	availableHeight uint16
	width, height   uint16

	firstUnallocatedBucket bucketIndex

	flipXY     bool
	alignment  Size
	allocSpace int32

	currentColumn uint16
	columnWidth   uint16
	numColumns    uint16
}

// Allocation is the result of a successful Allocate call.
type Allocation struct {
	ID        AllocID
	Rectangle Rectangle
}

// New creates an allocator with DefaultOptions.
func New(size Size) *Allocator {
	return NewWithOptions(size, DefaultOptions)
}

// NewWithOptions creates an allocator with the given options.
func NewWithOptions(size Size, options Options) *Allocator {
	if size.Width < 0 || size.Width >= 1<<16 {
		panic(fmt.Sprintf("atlas: width %d out of u16 range", size.Width))
	}
	if size.Height < 0 || size.Height >= 1<<16 {
		panic(fmt.Sprintf("atlas: height %d out of u16 range", size.Height))
	}

	var width, height uint16
	var shelfAlignment uint16
	if options.VerticalShelves {
		width, height = uint16(size.Height), uint16(size.Width)
		shelfAlignment = uint16(options.Alignment.Height)
	} else {
		width, height = uint16(size.Width), uint16(size.Height)
		shelfAlignment = uint16(options.Alignment.Width)
	}

	numColumns := uint16(options.NumColumns)
	if numColumns == 0 {
		numColumns = 1
	}
	columnWidth := width / numColumns
	if shelfAlignment > 0 {
		columnWidth -= columnWidth % shelfAlignment
	}

	return &Allocator{
		availableHeight:        height,
		width:                  width,
		height:                 height,
		firstUnallocatedBucket: bucketInvalid,
		flipXY:                 options.VerticalShelves,
		alignment:              options.Alignment,
		currentColumn:          0,
		numColumns:             numColumns,
		columnWidth:            columnWidth,
	}
}

// Clear drops every shelf and bucket, resetting the allocator to its
// just-constructed state.
func (a *Allocator) Clear() {
	a.shelves = a.shelves[:0]
	a.buckets = a.buckets[:0]
	a.firstUnallocatedBucket = bucketInvalid
	a.availableHeight = a.height
	a.currentColumn = 0
	a.allocSpace = 0
}

// Size returns the atlas's overall dimensions, in the orientation the
// caller originally requested (undoing the internal flip for vertical
// shelves).
func (a *Allocator) Size() Size {
	w, h := convertCoordinates(a.flipXY, a.width, a.height)
	return Size{Width: int32(w), Height: int32(h)}
}

// IsEmpty reports whether the allocator currently holds no shelves.
func (a *Allocator) IsEmpty() bool {
	return len(a.shelves) == 0
}

// AllocatedSpace returns the total pixel area of all live allocations.
func (a *Allocator) AllocatedSpace() int32 {
	return a.allocSpace
}

// FreeSpace returns the pixel area still available for future allocations.
func (a *Allocator) FreeSpace() int32 {
	return int32(a.width)*int32(a.height) - a.allocSpace
}

// Allocate reserves a rectangle of at least the requested size. It returns
// (Allocation{}, false) if width or height is zero, if either dimension
// exceeds 16-bit range, if the alignment-rounded size can't fit the column
// width or atlas height, or if no shelf can be created or coalesced.
func (a *Allocator) Allocate(requested Size) (Allocation, bool) {
	if requested.Width <= 0 || requested.Height <= 0 {
		return Allocation{}, false
	}
	if requested.Width > int32(^uint16(0)) || requested.Height > int32(^uint16(0)) {
		return Allocation{}, false
	}

	reqW := roundUp(requested.Width, a.alignment.Width)
	reqH := roundUp(requested.Height, a.alignment.Height)

	if reqW > int32(a.columnWidth) || reqH > int32(a.height) {
		return Allocation{}, false
	}

	w, h := convertCoordinates(a.flipXY, uint16(reqW), uint16(reqH))

	selectedShelf := -1
	selectedBucket := bucketInvalid
	bestWaste := ^uint16(0)

	canAddShelf := (a.availableHeight >= h || a.currentColumn+1 < a.numColumns) &&
		len(a.shelves) < maxShelfCount && len(a.buckets) < maxBinCount

shelves:
	for shelfIndex := range a.shelves {
		sh := &a.shelves[shelfIndex]
		if sh.height < h || sh.bucketWidth < w {
			continue
		}

		yWaste := sh.height - h
		if yWaste > bestWaste || (canAddShelf && yWaste > h) {
			continue
		}

		bi := sh.firstBucket
		for bi != bucketInvalid {
			b := &a.buckets[bi]

			if b.freeSpace >= w && b.itemCount < maxItemsPerBin {
				if yWaste == 0 && b.freeSpace == w {
					selectedShelf = shelfIndex
					selectedBucket = bi
					break shelves
				}

				if yWaste < bestWaste {
					bestWaste = yWaste
					selectedShelf = shelfIndex
					selectedBucket = bi
					break
				}
			}

			bi = b.next
		}
	}

	if selectedBucket == bucketInvalid {
		if canAddShelf {
			selectedShelf = a.addShelf(w, h)
			selectedBucket = a.shelves[selectedShelf].firstBucket
		} else {
			selectedShelf, selectedBucket = a.coalesceShelves(w, h)
		}
	}

	if selectedBucket != bucketInvalid {
		return a.allocFromBucket(selectedShelf, selectedBucket, w)
	}

	return Allocation{}, false
}

// Deallocate releases the rectangle identified by id. id must be a handle
// previously returned by Allocate on this allocator and not already
// deallocated; passing a stale or wrong-generation handle is a programming
// error and panics, mirroring the source allocator's debug assertion.
func (a *Allocator) Deallocate(id AllocID) {
	if a.deallocateFromBucket(id) {
		a.cleanupShelves()
	}
}

func (a *Allocator) allocFromBucket(shelfIndex int, bi bucketIndex, width uint16) (Allocation, bool) {
	sh := &a.shelves[shelfIndex]
	b := &a.buckets[bi]

	minX := b.x + sh.bucketWidth - b.freeSpace
	minY := sh.y
	maxX := minX + width
	maxY := minY + sh.height

	minXo, minYo := convertCoordinates(a.flipXY, minX, minY)
	maxXo, maxYo := convertCoordinates(a.flipXY, maxX, maxY)

	b.freeSpace -= width
	b.refcount++
	b.itemCount++

	id := newAllocID(uint32(bi), uint32(b.itemCount), uint32(b.generation))

	rect := Rectangle{
		Min: Point{X: int32(minXo), Y: int32(minYo)},
		Max: Point{X: int32(maxXo), Y: int32(maxYo)},
	}

	a.allocSpace += rect.Area()

	return Allocation{ID: id, Rectangle: rect}, true
}

func (a *Allocator) addShelf(width, height uint16) int {
	canAddColumn := a.currentColumn+1 < a.numColumns

	if a.availableHeight != 0 && a.availableHeight < height && canAddColumn {
		// Fill the remainder of the current column with a zero-width
		// filler shelf before moving to the next column.
		a.addShelf(0, a.availableHeight)
	}

	if a.availableHeight == 0 && canAddColumn {
		a.currentColumn++
		a.availableHeight = a.height
	}

	h := shelfHeight(height)
	if h > a.availableHeight {
		h = a.availableHeight
	}
	numBuckets := a.numBuckets(width, h)
	bucketWidth := a.columnWidth / numBuckets
	if a.alignment.Width > 0 {
		bucketWidth -= bucketWidth % uint16(a.alignment.Width)
	}
	y := a.height - a.availableHeight
	a.availableHeight -= h

	shelfIndex := len(a.shelves)

	x := a.currentColumn * a.columnWidth
	bucketNext := bucketInvalid
	for i := uint16(0); i < numBuckets; i++ {
		nb := bucket{
			next:      bucketNext,
			x:         x,
			freeSpace: bucketWidth,
			shelf:     uint16(shelfIndex),
		}
		x += bucketWidth

		bi := a.firstUnallocatedBucket
		if bi == bucketInvalid {
			bi = bucketIndex(len(a.buckets))
			a.buckets = append(a.buckets, nb)
		} else {
			old := &a.buckets[bi]
			nb.generation = old.generation + 1
			a.firstUnallocatedBucket = old.next
			a.buckets[bi] = nb
		}

		bucketNext = bi
	}

	a.shelves = append(a.shelves, shelf{
		x:           a.currentColumn * a.columnWidth,
		y:           y,
		height:      h,
		bucketWidth: bucketWidth,
		firstBucket: bucketNext,
	})

	return shelfIndex
}

// coalesceShelves scans forward for a run of up to three consecutive empty
// shelves in the same column whose combined height satisfies h, promoting
// the first one in the run and squashing the rest to zero height.
func (a *Allocator) coalesceShelves(w, h uint16) (int, bucketIndex) {
	n := len(a.shelves)

outer:
	for shelfIndex := 0; shelfIndex < n; shelfIndex++ {
		if a.shelves[shelfIndex].bucketWidth < w {
			continue
		}
		if !a.shelfIsEmpty(shelfIndex) {
			continue
		}
		shelfX := a.shelves[shelfIndex].x
		coalescedHeight := a.shelves[shelfIndex].height

		for i := 1; i < 3; i++ {
			if shelfIndex+i >= n {
				continue outer
			}
			if a.shelves[shelfIndex+i].x != shelfX {
				continue outer
			}
			if !a.shelfIsEmpty(shelfIndex + i) {
				continue outer
			}

			coalescedHeight += a.shelves[shelfIndex+i].height

			if coalescedHeight >= h {
				yTop := a.shelves[shelfIndex].y + coalescedHeight
				for j := shelfIndex + 1; j <= shelfIndex+i; j++ {
					a.shelves[j].y = yTop
					a.shelves[j].height = 0
				}
				a.shelves[shelfIndex].height = coalescedHeight
				return shelfIndex, a.shelves[shelfIndex].firstBucket
			}
		}
	}

	return 0, bucketInvalid
}

func (a *Allocator) numBuckets(width, height uint16) uint16 {
	dim := width
	if height > dim {
		dim = height
	}
	var n uint16
	switch v := a.columnWidth / dim; {
	case v <= 4:
		n = 1
	case v <= 16:
		n = 2
	case v <= 32:
		n = 4
	default:
		n = nextPowerOfTwo(v/16 - 1)
	}
	if max := uint16(maxBinCount - len(a.buckets)); n > max {
		n = max
	}
	return n
}

// deallocateFromBucket releases one reference on the bucket backing id and
// reports whether the top-of-stack shelf's last bucket was just emptied
// (triggering cleanup).
func (a *Allocator) deallocateFromBucket(id AllocID) bool {
	bi := bucketIndex(id.bucket())
	generation := id.generation()

	b := &a.buckets[bi]

	if generation != b.generation {
		panic(fmt.Sprintf("atlas: stale handle: generation %d, bucket is at generation %d", generation, b.generation))
	}
	if b.refcount == 0 {
		panic("atlas: double free")
	}
	b.refcount--

	sh := &a.shelves[b.shelf]

	empty := b.refcount == 0
	if empty {
		a.allocSpace -= int32(sh.bucketWidth-b.freeSpace) * int32(sh.height)
		b.freeSpace = sh.bucketWidth
	}

	return empty && int(b.shelf) == len(a.shelves)-1
}

func (a *Allocator) cleanupShelves() {
	for len(a.shelves) > 0 {
		sh := a.shelves[len(a.shelves)-1]
		bi := sh.firstBucket
		lastBucket := sh.firstBucket

		for bi != bucketInvalid {
			b := &a.buckets[bi]
			if b.refcount != 0 {
				return
			}
			lastBucket = bi
			bi = b.next
		}

		a.buckets[lastBucket].next = a.firstUnallocatedBucket
		a.firstUnallocatedBucket = sh.firstBucket

		if sh.y == 0 && a.currentColumn > 0 {
			a.currentColumn--
			prev := a.shelves[len(a.shelves)-2]
			a.availableHeight = a.height - (prev.y + prev.height)
		} else {
			a.availableHeight += sh.height
		}

		a.shelves = a.shelves[:len(a.shelves)-1]
	}
}

func (a *Allocator) shelfIsEmpty(idx int) bool {
	bi := a.shelves[idx].firstBucket
	for bi != bucketInvalid {
		b := &a.buckets[bi]
		if b.refcount != 0 {
			return false
		}
		bi = b.next
	}
	return true
}

func convertCoordinates(flipXY bool, x, y uint16) (uint16, uint16) {
	if flipXY {
		return y, x
	}
	return x, y
}

func shelfHeight(size uint16) uint16 {
	var alignment uint16
	switch {
	case size <= 31:
		alignment = 8
	case size <= 127:
		alignment = 16
	case size <= 511:
		alignment = 32
	default:
		alignment = 64
	}

	if rem := size % alignment; rem > 0 {
		size += alignment - rem
	}
	return size
}

func roundUp(size, alignment int32) int32 {
	if alignment <= 0 {
		return size
	}
	if rem := size % alignment; rem > 0 {
		size += alignment - rem
	}
	return size
}

func nextPowerOfTwo(v uint16) uint16 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v++
	return v
}
