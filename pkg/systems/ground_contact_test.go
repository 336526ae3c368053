package systems

import (
	"math"
	"testing"

	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/config"
	"github.com/gonewx/worm/pkg/ecs"
	"github.com/gonewx/worm/pkg/entities"
	"github.com/gonewx/worm/pkg/physics"
	"github.com/jakecoffman/cp"
)

func TestContactGroundSensor(t *testing.T) {
	tests := []struct {
		name    string
		contact physics.Contact
		want    bool
	}{
		{"static floor below", physics.Contact{Normal: cp.Vector{X: 0, Y: 1}, Static: true}, true},
		{"gentle slope", physics.Contact{Normal: cp.Vector{X: 0.6, Y: 0.8}, Static: true}, true},
		{"wall", physics.Contact{Normal: cp.Vector{X: 1, Y: 0}, Static: true}, false},
		{"ceiling", physics.Contact{Normal: cp.Vector{X: 0, Y: -1}, Static: true}, false},
		{"dynamic body below", physics.Contact{Normal: cp.Vector{X: 0, Y: 1}, Static: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newTestWorm(t, quietConfig(), false)
			sensor := NewContactGroundSensor(tw.world)

			if sensor.Grounded(tw.worm) {
				t.Fatal("worm without contacts should not be grounded")
			}
			tw.body(7).ContactNormals = []physics.Contact{tt.contact}
			if got := sensor.Grounded(tw.worm); got != tt.want {
				t.Errorf("Grounded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContactGroundSensorCustomUpAxis(t *testing.T) {
	cfg := quietConfig()
	cfg.Ground.UpX, cfg.Ground.UpY = 0, 2
	tw := newTestWorm(t, cfg, false)
	tw.body(0).ContactNormals = []physics.Contact{{Normal: cp.Vector{X: 0, Y: 1}, Static: true}}

	if !NewContactGroundSensor(tw.world).Grounded(tw.worm) {
		t.Error("up axis should be normalized before comparing with the threshold")
	}
}

func TestHeightGroundSensor(t *testing.T) {
	arena := config.DefaultArenaConfig()
	sensor := NewHeightGroundSensor(arena)
	tw := newTestWorm(t, quietConfig(), false)
	tail := tw.worm.SegmentCount() - 1
	r := tw.worm.Segments[tail].Radius

	place := func(x, bottom float64) {
		for i := range tw.worm.Segments {
			tw.body(i).Pos = cp.Vector{X: x, Y: 1000 + float64(i)}
		}
		tw.body(tail).Pos = cp.Vector{X: x, Y: bottom + r}
	}

	place(-100, arena.GroundY+1)
	if !sensor.Grounded(tw.worm) {
		t.Error("segment within tolerance of the ground should be grounded")
	}

	place(-100, arena.GroundY+50)
	if sensor.Grounded(tw.worm) {
		t.Error("segment far above the ground should not be grounded")
	}

	p := arena.Platforms[1]
	place((p.MinX+p.MaxX)/2, p.MaxY+0.5)
	if !sensor.Grounded(tw.worm) {
		t.Error("segment resting on a platform should be grounded")
	}

	place(p.MaxX+200, p.MaxY+0.5)
	if sensor.Grounded(tw.worm) {
		t.Error("segment beside a platform should not be grounded")
	}
}

func TestAnyGroundSensor(t *testing.T) {
	yes := GroundSensorFunc(func(*components.WormComponent) bool { return true })
	no := GroundSensorFunc(func(*components.WormComponent) bool { return false })

	if (AnyGroundSensor{no, nil, no}).Grounded(nil) {
		t.Error("all false should be false")
	}
	if !(AnyGroundSensor{no, yes}).Grounded(nil) {
		t.Error("any true should be true")
	}
	if (AnyGroundSensor{}).Grounded(nil) {
		t.Error("empty sensor list should be false")
	}
}

// TestContactGroundSensorWithChipmunk 真实求解器中落地的蠕虫被判定为着地
func TestContactGroundSensorWithChipmunk(t *testing.T) {
	cfg := quietConfig()
	world := physics.NewCPWorld(physics.DefaultCPWorldConfig())
	world.AddGround(0, -1000, 1000, 1)

	links, err := entities.BuildChain(cfg.Body.BaseRadius, cfg.Body.SizeFactors, cfg.Body.SegmentGap)
	if err != nil {
		t.Fatal(err)
	}
	maxRadius := 0.0
	for _, l := range links {
		maxRadius = math.Max(maxRadius, l.Radius)
	}
	head := cp.Vector{X: 0, Y: maxRadius + 20}

	em := ecs.NewEntityManager()
	id, err := entities.NewWormEntity(em, world, cfg, head)
	if err != nil {
		t.Fatal(err)
	}
	worm, _ := ecs.GetComponent[*components.WormComponent](em, id)
	sensor := NewContactGroundSensor(world)

	if sensor.Grounded(worm) {
		t.Fatal("worm should start in the air")
	}

	loco := NewLocomotionSystem(em)
	grounded := false
	for range 180 {
		loco.Update(testDT)
		world.Step(testDT)
		if sensor.Grounded(worm) {
			grounded = true
			break
		}
	}
	if !grounded {
		t.Error("worm should land on the ground within 3 seconds")
	}
}
