package world

const shadowDissolveTime = 1.0

// DebtShadow is debt made visible. It spawns at high debt, chases the player
// faster as debt grows, ignores freezes and dissolves once debt falls below
// half its spawn threshold.
type DebtShadow struct {
	*Body
	Speed      float64
	SpawnDebt  float64
	dissolving bool
	fade       float64
	done       bool
}

func (s *DebtShadow) Kind() Kind           { return KindShadow }
func (s *DebtShadow) AffectedByTime() bool { return false }
func (s *DebtShadow) Done() bool           { return s.done }
func (s *DebtShadow) Dissolving() bool     { return s.dissolving }

// Alpha fades from 1 to 0 over the dissolve.
func (s *DebtShadow) Alpha() float64 {
	if !s.dissolving {
		return 1
	}
	return max(0, 1-s.fade/shadowDissolveTime)
}

func (s *DebtShadow) Update(dt float64, env *Env) {
	debt := 0.0
	if env != nil && env.Debt != nil {
		debt = env.Debt.Current()
	}
	if !s.dissolving && debt < s.SpawnDebt*0.5 {
		s.dissolving = true
		s.fade = 0
	}
	if s.dissolving {
		s.fade += dt
		if s.fade >= shadowDissolveTime {
			s.done = true
		}
		return
	}
	if dt <= 0 || env == nil || env.Player == nil {
		return
	}
	speed := s.Speed * (1 + debt/20)
	next := s.Pos.MoveToward(env.Player.Pos, speed*dt)
	s.Vel = next.Sub(s.Pos).Scale(1 / dt)
	s.Pos = next
}
