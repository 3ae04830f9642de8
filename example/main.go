package main

import (
	"log"
	"net/http"
	"os"
	"runtime"

	_ "net/http/pprof"

	"github.com/wetrycode/responder/cmd"
)

func main() {
	if addr := os.Getenv("RESPONDER_PPROF"); addr != "" {
		runtime.SetMutexProfileFraction(1) // 开启对锁调用的跟踪
		runtime.SetBlockProfileRate(1)     // 开启对阻塞操作的跟踪
		go func() {
			log.Println(http.ListenAndServe(addr, nil))
		}()
	}
	cmd.Execute()
}
