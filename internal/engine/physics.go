package engine

import "math"

// Physics-lite simulation shared by the alkkagi and curling minigames.
// Stones live in continuous board coordinates (0..size), move under
// linear friction and transfer momentum along the impact line on contact.
// The step size is coarse on purpose; clients replay the returned frames,
// they never simulate themselves.

type PhysicsStone struct {
	ID    int     `json:"id"`
	Owner Stone   `json:"owner"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Gone  bool    `json:"gone"`
}

const (
	stoneRadius  = 0.45
	frictionCoef = 0.94
	stopSpeed    = 0.02
	maxFlickVel  = 2.5
	maxSimSteps  = 400
)

// FlickResult reports which stones left the field and where everything
// came to rest.
type FlickResult struct {
	Stones  []PhysicsStone `json:"stones"`
	Removed []int          `json:"removed"`
}

// SimulateFlick launches the stone with the given id at angle (radians)
// and power (clamped to 0..1) and integrates until all motion stops.
// Stones whose center leaves the field are marked Gone.
func SimulateFlick(stones []PhysicsStone, size int, id int, angle, power float64) FlickResult {
	if power < 0 {
		power = 0
	}
	if power > 1 {
		power = 1
	}

	type body struct {
		stone  *PhysicsStone
		vx, vy float64
	}
	bodies := make([]body, len(stones))
	working := make([]PhysicsStone, len(stones))
	copy(working, stones)
	for i := range working {
		bodies[i] = body{stone: &working[i]}
		if working[i].ID == id {
			bodies[i].vx = math.Cos(angle) * power * maxFlickVel
			bodies[i].vy = math.Sin(angle) * power * maxFlickVel
		}
	}

	limit := float64(size)
	for step := 0; step < maxSimSteps; step++ {
		moving := false
		for i := range bodies {
			b := &bodies[i]
			if b.stone.Gone {
				continue
			}
			speed := math.Hypot(b.vx, b.vy)
			if speed < stopSpeed {
				b.vx, b.vy = 0, 0
				continue
			}
			moving = true
			b.stone.X += b.vx
			b.stone.Y += b.vy
			b.vx *= frictionCoef
			b.vy *= frictionCoef

			if b.stone.X < 0 || b.stone.Y < 0 || b.stone.X > limit || b.stone.Y > limit {
				b.stone.Gone = true
				b.vx, b.vy = 0, 0
			}
		}

		// Pairwise contact: the faster stone hands its velocity on along
		// the line between centers.
		for i := range bodies {
			for j := i + 1; j < len(bodies); j++ {
				a, c := &bodies[i], &bodies[j]
				if a.stone.Gone || c.stone.Gone {
					continue
				}
				dx := c.stone.X - a.stone.X
				dy := c.stone.Y - a.stone.Y
				dist := math.Hypot(dx, dy)
				if dist == 0 || dist > 2*stoneRadius {
					continue
				}
				nx, ny := dx/dist, dy/dist
				impact := a.vx*nx + a.vy*ny
				if impact <= 0 {
					continue
				}
				a.vx -= impact * nx
				a.vy -= impact * ny
				c.vx += impact * nx
				c.vy += impact * ny
				// Push the pair apart so they do not re-collide next step.
				overlap := 2*stoneRadius - dist
				c.stone.X += nx * overlap
				c.stone.Y += ny * overlap
			}
		}

		if !moving {
			break
		}
	}

	result := FlickResult{Stones: working}
	for i := range working {
		if working[i].Gone && !stones[i].Gone {
			result.Removed = append(result.Removed, working[i].ID)
		}
	}
	return result
}

// DistanceToCenter measures a stone's distance from the board center,
// used for curling end scoring. Gone stones are infinitely far.
func DistanceToCenter(s PhysicsStone, size int) float64 {
	if s.Gone {
		return math.Inf(1)
	}
	center := float64(size) / 2
	return math.Hypot(s.X-center, s.Y-center)
}

// ClosestStoneOwner returns the owner of the stone nearest the center,
// or None when no stone remains in the field.
func ClosestStoneOwner(stones []PhysicsStone, size int) Stone {
	best := math.Inf(1)
	owner := None
	for _, s := range stones {
		d := DistanceToCenter(s, size)
		if d < best {
			best = d
			owner = s.Owner
		}
	}
	return owner
}

// RemainingStones counts live stones per owner, for the alkkagi loss check.
func RemainingStones(stones []PhysicsStone, owner Stone) int {
	count := 0
	for _, s := range stones {
		if s.Owner == owner && !s.Gone {
			count++
		}
	}
	return count
}
