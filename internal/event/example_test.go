package event_test

import (
	"fmt"

	"github.com/dshills/vectorcore/internal/event"
)

func Example() {
	bus := event.NewBus()
	defer bus.Destroy()

	l := bus.On(event.TopicEntityRegistered, func(args ...any) error {
		fmt.Println("registered", args[0])
		return nil
	})

	bus.Emit(event.TopicEntityRegistered, "rect_1")
	l.Off()
	fmt.Println(bus.Emit(event.TopicEntityRegistered, "rect_2"))

	// Output:
	// registered rect_1
	// false
}

func ExampleBus_Once() {
	bus := event.NewBus()
	defer bus.Destroy()

	bus.Once(event.TopicToolChange, func(args ...any) error {
		fmt.Println("tool", args[0])
		return nil
	})

	bus.Emit(event.TopicToolChange, "rect")
	bus.Emit(event.TopicToolChange, "circle")

	// Output: tool rect
}
