package main

import (
	"fmt"

	"github.com/axiomphysics/axiom"
	"github.com/axiomphysics/axiom/actor"
	"github.com/axiomphysics/axiom/config"
	"github.com/go-gl/mathgl/mgl64"
)

// setupScene builds a world with a static ground plane and a dynamic cube
// dropped above it, rotated about the z axis so it lands on an edge first.
func setupScene() (*axiom.World, *actor.ShapeTable, *actor.RigidBody, *actor.RigidBody) {
	shapes := actor.NewShapeTable()
	world := axiom.NewWorld(shapes, config.Default())
	world.Gravity = mgl64.Vec3{0, -9.81, 0}
	world.Substeps = 4
	world.Workers = 2

	planeRef := shapes.AddConvex(actor.ShapeKindPlane, &actor.Plane{
		Normal:   mgl64.Vec3{0, 1, 0},
		Distance: 0.0,
	})
	planeBody, err := actor.NewRigidBody(1, actor.Transform{
		Position: mgl64.Vec3{0, 0, 0},
		Rotation: mgl64.QuatIdent(),
	}, shapes, planeRef, actor.MobilityStatic, 0, 0)
	if err != nil {
		panic(err)
	}
	world.AddBody(planeBody)

	boxRef := shapes.AddConvex(actor.ShapeKindBox, &actor.Box{
		HalfExtents: mgl64.Vec3{1.5, 1.5, 1.5},
	})
	cubeBody, err := actor.NewRigidBody(2, actor.Transform{
		Position: mgl64.Vec3{-5.0, 5.0, -5.0},
		Rotation: mgl64.QuatRotate(70.0, mgl64.Vec3{0, 0, 1}),
	}, shapes, boxRef, actor.MobilityDynamic, 1.0, 0)
	if err != nil {
		panic(err)
	}
	cubeBody.Material.Restitution = 0.8
	world.AddBody(cubeBody)

	return world, shapes, planeBody, cubeBody
}

func main() {
	world, _, planeBody, cubeBody := setupScene()

	world.Events.Subscribe(axiom.CollisionEnter, func(e axiom.Event) {
		evt := e.(axiom.CollisionEnterEvent)
		fmt.Printf("collision enter: body %d <-> body %d\n", evt.A, evt.B)
	})
	world.Events.Subscribe(axiom.OnSleep, func(e axiom.Event) {
		evt := e.(axiom.SleepEvent)
		fmt.Printf("body %d fell asleep\n", evt.Body)
	})

	fmt.Printf("initial: plane pos %v, cube pos %v rotation %v\n",
		planeBody.Transform.Position, cubeBody.Transform.Position, cubeBody.Transform.Rotation)

	const dt = 1.0 / 60.0
	const maxSteps = 200

	for step := 0; step < maxSteps; step++ {
		world.Step(dt)

		if step%30 == 0 || step == maxSteps-1 {
			fmt.Printf("step %3d: cube pos %v velocity %v angular %v\n",
				step, cubeBody.Transform.Position, cubeBody.Velocity, cubeBody.AngularVelocity)
		}
	}

	fmt.Println("done")
}
