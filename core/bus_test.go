package core

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("cursos", "noticias")
	defer sub.Unsubscribe()

	bus.Publish(Event{Topic: "cursos", Action: ActionCreated, Doc: "c1"})
	bus.Publish(Event{Topic: "muro", Action: ActionCreated, Doc: "ignored"})
	bus.Publish(Event{Topic: "noticias", Action: ActionDeleted, Doc: "n1"})

	evt := <-sub.C
	if evt.Topic != "cursos" || evt.Action != ActionCreated {
		t.Errorf("got %+v; want cursos/created", evt)
	}
	evt = <-sub.C
	if evt.Topic != "noticias" || evt.Action != ActionDeleted {
		t.Errorf("got %+v; want noticias/deleted", evt)
	}
	select {
	case evt = <-sub.C:
		t.Errorf("unexpected event %+v", evt)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("cursos")
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if _, open := <-sub.C; open {
		t.Error("channel still open after Unsubscribe")
	}

	// publishing after unsubscribe must not panic
	bus.Publish(Event{Topic: "cursos", Action: ActionUpdated})
}

func TestBusDropsWhenSubscriberIsSlow(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("cursos")
	defer sub.Unsubscribe()

	for i := 0; i < subBufferSize+10; i++ {
		bus.Publish(Event{Topic: "cursos", Action: ActionUpdated, Doc: i})
	}
	if got := len(sub.c); got != subBufferSize {
		t.Errorf("buffered %d events; want %d", got, subBufferSize)
	}
}
