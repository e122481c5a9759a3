package world

import (
	"math"

	"github.com/temporaldebt/core/internal/geom"
)

type PatrolMode uint8

const (
	PatrolLinear PatrolMode = iota
	PatrolCircular
	PatrolSeeker
)

func ParsePatrolMode(s string) (PatrolMode, bool) {
	switch s {
	case "", "linear":
		return PatrolLinear, true
	case "circular":
		return PatrolCircular, true
	case "seeker":
		return PatrolSeeker, true
	}
	return 0, false
}

func (m PatrolMode) String() string {
	switch m {
	case PatrolLinear:
		return "linear"
	case PatrolCircular:
		return "circular"
	case PatrolSeeker:
		return "seeker"
	}
	return "unknown"
}

const (
	DroneSpeed       = 120.0
	SeekerSpeed      = 150.0
	SeekerRange      = 300.0
	OrbitRadius      = 100.0
	OrbitAngularRate = 1.0 // radians per second
)

// PatrolDrone follows a predictable route. Linear drones bounce along their
// waypoints, circular drones orbit their spawn point and seekers chase the
// player inside SeekerRange and patrol otherwise.
type PatrolDrone struct {
	*Body
	Mode  PatrolMode
	Speed float64

	waypoints []geom.Vec2
	next      int
	dir       int

	center geom.Vec2
	radius float64
	angle  float64

	chasing bool
}

func (d *PatrolDrone) Kind() Kind           { return KindDrone }
func (d *PatrolDrone) AffectedByTime() bool { return true }
func (d *PatrolDrone) Done() bool           { return false }
func (d *PatrolDrone) Chasing() bool        { return d.chasing }

func (d *PatrolDrone) Update(dt float64, env *Env) {
	if dt <= 0 {
		return
	}
	switch d.Mode {
	case PatrolCircular:
		d.angle += OrbitAngularRate * dt
		d.Pos = d.orbitAt(d.angle)
		d.Vel = d.orbitVelocity(d.angle)
		return
	case PatrolSeeker:
		d.chasing = env != nil && env.Player != nil && d.Pos.Dist(env.Player.Pos) <= SeekerRange
		if d.chasing {
			next := d.Pos.MoveToward(env.Player.Pos, SeekerSpeed*dt)
			d.Vel = next.Sub(d.Pos).Scale(1 / dt)
			d.Pos = next
			return
		}
	}
	prev := d.Pos
	d.Pos, d.next, d.dir = d.walk(d.Pos, d.next, d.dir, d.Speed*dt)
	d.Vel = d.Pos.Sub(prev).Scale(1 / dt)
}

// PredictPosition replays the route analytically, so predictions for patrol
// and orbit drones match what Update will actually do.
func (d *PatrolDrone) PredictPosition(t float64) geom.Vec2 {
	switch {
	case d.Mode == PatrolCircular:
		return d.orbitAt(d.angle + OrbitAngularRate*t)
	case d.Mode == PatrolSeeker && d.chasing:
		return d.Body.PredictPosition(t)
	}
	pos, _, _ := d.walk(d.Pos, d.next, d.dir, d.Speed*t)
	return pos
}

func (d *PatrolDrone) orbitAt(angle float64) geom.Vec2 {
	return d.center.Add(geom.V(math.Cos(angle), math.Sin(angle)).Scale(d.radius))
}

func (d *PatrolDrone) orbitVelocity(angle float64) geom.Vec2 {
	return geom.V(-math.Sin(angle), math.Cos(angle)).Scale(d.radius * OrbitAngularRate)
}

// walk moves dist pixels along the waypoint route, bouncing at either end.
func (d *PatrolDrone) walk(pos geom.Vec2, next, dir int, dist float64) (geom.Vec2, int, int) {
	n := len(d.waypoints)
	if n == 0 || dist <= 0 {
		return pos, next, dir
	}
	if n == 1 {
		return pos.MoveToward(d.waypoints[0], dist), next, dir
	}
	idle := 0
	for dist > 0 && idle < n {
		target := d.waypoints[next]
		gap := pos.Dist(target)
		if gap > dist {
			return pos.MoveToward(target, dist), next, dir
		}
		pos = target
		dist -= gap
		if gap == 0 {
			idle++
		} else {
			idle = 0
		}
		next += dir
		if next >= n {
			next, dir = n-2, -1
		} else if next < 0 {
			next, dir = 1, 1
		}
	}
	return pos, next, dir
}
