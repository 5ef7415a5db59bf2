package a

import "time"

func waitInTest() {
	time.Sleep(time.Millisecond)
}
