package router

import "testing"

func TestFanDeliversToAllSubscribers(t *testing.T) {
	in := make(chan int)
	f := NewFan[int]("test", in)
	a := f.Subscribe("a")
	b := f.Subscribe("b")

	done := make(chan error, 1)
	go func() { done <- f.Run() }()

	in <- 7
	if v := <-a; v != 7 {
		t.Errorf("a: expected 7, got %d", v)
	}
	if v := <-b; v != 7 {
		t.Errorf("b: expected 7, got %d", v)
	}

	close(in)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := <-a; ok {
		t.Error("expected subscriber channel closed after input closed")
	}
}

func TestFanDropsForSlowSubscriber(t *testing.T) {
	in := make(chan int)
	f := NewFan[int]("test", in)
	slow := f.Subscribe("slow")

	done := make(chan error, 1)
	go func() { done <- f.Run() }()

	for i := 1; i <= 3; i++ {
		in <- i
	}
	close(in)
	<-done

	if v := <-slow; v != 1 {
		t.Errorf("expected first value kept, got %d", v)
	}
	if n := f.Dropped("slow"); n != 2 {
		t.Errorf("expected 2 dropped, got %d", n)
	}
}

func TestFanDoubleSubscribePanics(t *testing.T) {
	f := NewFan[int]("test", make(chan int))
	f.Subscribe("a")
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	f.Subscribe("a")
}

func TestFanUnsubscribe(t *testing.T) {
	f := NewFan[int]("test", make(chan int))
	c := f.Subscribe("a")
	f.Unsubscribe("a")
	if _, ok := <-c; ok {
		t.Error("expected closed channel")
	}
}
