package game

// Mover is the capability set the simulation needs from any snake,
// whether it is driven by a player or by an agent.
type Mover interface {
	ID() string
	Head() Point
	// Segments returns a copy of the body, head first.
	Segments() []Point
	Len() int
	Direction() Direction
	// Move advances one cell. vacated is false while the snake is growing.
	Move() (tail Point, vacated bool)
	// SetDirection queues d for the next move. It rejects an exact reversal.
	SetDirection(d Direction) bool
	Grow(n int)
	SelfCollision() bool
	Occupies(p Point) bool
}

// Snake is a body of cells, head first, with a queued direction and pending growth.
type Snake struct {
	id     string
	body   []Point
	dir    Direction
	next   Direction
	growth int
}

var _ Mover = (*Snake)(nil)

// NewSnake lays out length cells starting at head and trailing away from dir.
func NewSnake(id string, head Point, dir Direction, length int) *Snake {
	if length < 1 {
		length = 1
	}
	body := InitialBody(head, dir, length)
	return &Snake{id: id, body: body, dir: dir, next: dir}
}

// InitialBody returns the cells a freshly spawned snake would cover.
func InitialBody(head Point, dir Direction, length int) []Point {
	back := dir.Opposite().Delta()
	body := make([]Point, length)
	p := head
	for i := range body {
		body[i] = p
		p = p.Add(back)
	}
	return body
}

func (s *Snake) ID() string { return s.id }

func (s *Snake) Head() Point {
	if len(s.body) == 0 {
		return Point{}
	}
	return s.body[0]
}

// Tail returns the last segment.
func (s *Snake) Tail() Point {
	if len(s.body) == 0 {
		return Point{}
	}
	return s.body[len(s.body)-1]
}

func (s *Snake) Segments() []Point {
	out := make([]Point, len(s.body))
	copy(out, s.body)
	return out
}

func (s *Snake) Len() int { return len(s.body) }

func (s *Snake) Direction() Direction { return s.dir }

// Pending returns the direction the next Move will take.
func (s *Snake) Pending() Direction { return s.next }

// Growth returns the number of moves that will not shed the tail.
func (s *Snake) Growth() int { return s.growth }

func (s *Snake) Move() (Point, bool) {
	if len(s.body) == 0 {
		panic("game: move of empty snake " + s.id)
	}
	s.dir = s.next
	head := s.body[0].Add(s.dir.Delta())

	s.body = append(s.body, Point{})
	copy(s.body[1:], s.body[:len(s.body)-1])
	s.body[0] = head

	if s.growth > 0 {
		s.growth--
		return Point{}, false
	}
	tail := s.body[len(s.body)-1]
	s.body = s.body[:len(s.body)-1]
	return tail, true
}

func (s *Snake) SetDirection(d Direction) bool {
	if d.Delta() == (Point{}) || s.dir.Reverses(d) {
		return false
	}
	s.next = d
	return true
}

func (s *Snake) Grow(n int) {
	if n > 0 {
		s.growth += n
	}
}

func (s *Snake) SelfCollision() bool {
	if len(s.body) < 2 {
		return false
	}
	head := s.body[0]
	for _, p := range s.body[1:] {
		if p == head {
			return true
		}
	}
	return false
}

func (s *Snake) Occupies(p Point) bool {
	for _, b := range s.body {
		if b == p {
			return true
		}
	}
	return false
}
