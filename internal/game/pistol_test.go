package game

import (
	"testing"

	"github.com/golang/geo/r3"
)

type shockwaveScene struct {
	world    *World
	owner    *Pawn
	behind   []*Pawn
	far      *Pawn
	front    *Pawn
	nearProp *Prop
	farProp  *Prop
	rec      *recordingObserver
}

// newShockwaveScene puts an owner at the origin facing +X with three pawns
// inside the blast behind them and two outside it.
func newShockwaveScene(t *testing.T, realm Realm) *shockwaveScene {
	t.Helper()
	w := newTestWorld(t, realm)
	rec := newRecordingObserver()
	w.SetObserver(rec)

	_, owner := spawnPlayer(w, "owner", r3.Vector{})
	s := &shockwaveScene{world: w, owner: owner, rec: rec}
	for _, pos := range []r3.Vector{{X: -20}, {X: -10, Y: 20}, {X: -10, Y: -30}} {
		_, p := spawnPlayer(w, "victim", pos)
		s.behind = append(s.behind, p)
	}
	_, s.far = spawnPlayer(w, "far", r3.Vector{X: -60})
	_, s.front = spawnPlayer(w, "front", r3.Vector{X: 40})

	s.nearProp = NewProp(w)
	s.nearProp.SetPosition(r3.Vector{X: 20})
	s.farProp = NewProp(w)
	s.farProp.SetPosition(r3.Vector{X: 50})

	w.Outbox().Drain()
	return s
}

func TestShockwaveKillsPawnsBehindOwner(t *testing.T) {
	s := newShockwaveScene(t, RealmServer)

	pawnHits, entityHits := Shockwave(s.owner.ActiveWeapon())
	if pawnHits != 3 {
		t.Errorf("pawnHits = %d, want 3", pawnHits)
	}
	if entityHits != 1 {
		t.Errorf("entityHits = %d, want 1", entityHits)
	}

	for i, v := range s.behind {
		if v.IsAlive() || v.Health() != 0 {
			t.Errorf("victim %d: alive=%v health=%v", i, v.IsAlive(), v.Health())
		}
		if v.Score.Deaths != 1 {
			t.Errorf("victim %d: deaths = %d, want 1", i, v.Score.Deaths)
		}
		if n := s.rec.damage[v.ID()]; n != 1 {
			t.Errorf("victim %d damaged %d times, want 1", i, n)
		}
		if v.LastDamage().Attacker != Entity(s.owner) {
			t.Errorf("victim %d: attacker not credited", i)
		}
	}

	for name, p := range map[string]*Pawn{"far": s.far, "front": s.front} {
		if !p.IsAlive() || p.Score.Deaths != 0 || s.rec.damage[p.ID()] != 0 {
			t.Errorf("%s pawn should be untouched", name)
		}
	}

	if got := s.owner.Score; got.Kills != 3 || got.Killstreak != 3 || got.Deaths != 0 {
		t.Errorf("owner score = %+v", got)
	}
	if s.rec.damage[s.owner.ID()] != 0 {
		t.Error("owner damaged by own shockwave")
	}
	if s.rec.kills != 3 {
		t.Errorf("kills observed = %d, want 3", s.rec.kills)
	}
}

// killScoreObserver records the scores visible when each kill is reported.
type killScoreObserver struct {
	NopObserver
	killerKills  []int
	victimDeaths []int
}

func (o *killScoreObserver) OnPawnKilled(victim *Pawn, info DamageInfo) {
	killer, _ := info.Attacker.(*Pawn)
	if killer == nil {
		return
	}
	o.killerKills = append(o.killerKills, killer.Score.Kills)
	o.victimDeaths = append(o.victimDeaths, victim.Score.Deaths)
}

func TestShockwaveKillSeesUpdatedScore(t *testing.T) {
	s := newShockwaveScene(t, RealmServer)
	obs := &killScoreObserver{}
	s.world.SetObserver(obs)

	Shockwave(s.owner.ActiveWeapon())

	if len(obs.killerKills) != 3 {
		t.Fatalf("Expected three kills, got %d", len(obs.killerKills))
	}
	for i := range obs.killerKills {
		if obs.killerKills[i] != i+1 {
			t.Errorf("kill %d: killer kills = %d, want %d", i, obs.killerKills[i], i+1)
		}
		if obs.victimDeaths[i] != 1 {
			t.Errorf("kill %d: victim deaths = %d, want 1", i, obs.victimDeaths[i])
		}
	}
}

func TestShockwaveBreaksNearbyEntities(t *testing.T) {
	s := newShockwaveScene(t, RealmServer)

	Shockwave(s.owner.ActiveWeapon())

	if s.nearProp.IsValid() {
		t.Error("prop next to the owner survived")
	}
	if !s.farProp.IsValid() || s.farProp.Health() != PropHealth {
		t.Error("prop outside the radius was damaged")
	}
	if !s.owner.ActiveWeapon().IsValid() {
		t.Error("owner's weapon was destroyed")
	}
}

func TestShockwaveKnockback(t *testing.T) {
	tests := []struct {
		kills int
		speed float64
	}{
		{0, 900},
		{2, 1000},
		{5, 1100},
	}

	for _, tt := range tests {
		w := newTestWorld(t, RealmServer)
		_, p := spawnPlayer(w, "owner", r3.Vector{})
		p.SetEyeRotation(Angles{Yaw: 90})
		p.Score.Kills = tt.kills

		Shockwave(p.ActiveWeapon())

		want := r3.Vector{Y: tt.speed}
		if !approxVec(p.Velocity(), want, 1e-6) {
			t.Errorf("kills=%d: velocity = %v, want %v", tt.kills, p.Velocity(), want)
		}
	}
}

func TestShockwaveCreditsDeadPawnsAgain(t *testing.T) {
	s := newShockwaveScene(t, RealmServer)
	wep := s.owner.ActiveWeapon()

	Shockwave(wep)
	pawnHits, _ := Shockwave(wep)

	if pawnHits != 3 {
		t.Errorf("second blast pawnHits = %d, want 3", pawnHits)
	}
	if s.owner.Score.Kills != 6 {
		t.Errorf("kills = %d, want 6", s.owner.Score.Kills)
	}
	if s.rec.kills != 3 {
		t.Errorf("deaths observed = %d, want 3", s.rec.kills)
	}
}

func TestShockwaveClientRealmOnlyMoves(t *testing.T) {
	s := newShockwaveScene(t, RealmClient)

	pawnHits, entityHits := Shockwave(s.owner.ActiveWeapon())
	if pawnHits != 0 || entityHits != 0 {
		t.Errorf("client hits = %d/%d, want 0/0", pawnHits, entityHits)
	}
	for _, v := range s.behind {
		if !v.IsAlive() || v.Score.Deaths != 0 {
			t.Fatal("client realm applied damage")
		}
	}
	if s.owner.Score.Kills != 0 {
		t.Error("client realm credited kills")
	}
	if !s.nearProp.IsValid() {
		t.Error("client realm broke a prop")
	}
	if !approxVec(s.owner.Velocity(), r3.Vector{X: ShockwaveBaseSpeed}, 1e-6) {
		t.Errorf("velocity = %v, want knockback on the client too", s.owner.Velocity())
	}

	msgs := drainByKind(s.world)
	if len(msgs[MsgParticles]) != 1 || len(msgs[MsgSound]) != 1 {
		t.Errorf("effects = %d particles, %d sounds", len(msgs[MsgParticles]), len(msgs[MsgSound]))
	}
}

func TestShockwaveWithoutOwner(t *testing.T) {
	w := newTestWorld(t, RealmServer)
	if p, e := Shockwave(NewPistol(w)); p != 0 || e != 0 {
		t.Errorf("unowned shockwave = %d/%d", p, e)
	}
	if n := len(w.Outbox().Drain()); n != 0 {
		t.Errorf("unowned shockwave sent %d messages", n)
	}
}

func TestPistolSimulateFiresOnce(t *testing.T) {
	w := newTestWorld(t, RealmServer)
	rec := newRecordingObserver()
	w.SetObserver(rec)

	cl, owner := spawnPlayer(w, "owner", r3.Vector{})
	_, victim := spawnPlayer(w, "victim", r3.Vector{X: -20})
	advance(w, 10)
	w.Outbox().Drain()

	cl.Input.Press(InputAttack1)
	owner.Simulate(cl)
	owner.Simulate(cl)

	if rec.attacks != 1 {
		t.Fatalf("attacks = %d, want 1", rec.attacks)
	}
	if victim.IsAlive() || owner.Score.Kills != 1 {
		t.Errorf("victim alive=%v, owner kills=%d", victim.IsAlive(), owner.Score.Kills)
	}
	if v, _ := owner.AnimParameter("holdtype"); v != int(HoldTypePistol) {
		t.Errorf("holdtype = %v", v)
	}

	msgs := drainByKind(w)
	effects := msgs[MsgShootEffects]
	if len(effects) != 1 {
		t.Fatalf("shoot effects = %d, want 1", len(effects))
	}
	fx := effects[0]
	if fx.Asset != PistolMuzzleFlash || fx.Attachment != MuzzleAttachment {
		t.Errorf("shoot effects = %+v", fx)
	}
	if fx.Params["b_attack"] != true || fx.Params["viewModelAnim"] != "fire" {
		t.Errorf("shoot params = %v", fx.Params)
	}
	if len(msgs[MsgPawnKilled]) != 1 {
		t.Errorf("pawn_killed messages = %d", len(msgs[MsgPawnKilled]))
	}
}

func TestPistolIdentity(t *testing.T) {
	w := newTestWorld(t, RealmServer)
	wep := NewPistol(w)
	if wep.ClassName() != "weapon_pistol" {
		t.Errorf("class = %q", wep.ClassName())
	}
	if wep.Model() != PistolModel || wep.Kind().ViewModelPath() != PistolViewModel {
		t.Errorf("models = %q, %q", wep.Model(), wep.Kind().ViewModelPath())
	}
	if wep.Kind().PrimaryRate() != DefaultPrimaryRate {
		t.Errorf("rate = %v", wep.Kind().PrimaryRate())
	}
}
