package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/readline"

	"github.com/robotalks/serterm/pkg/bridge/mqtt"
	"github.com/robotalks/serterm/pkg/bridge/websocket"
	"github.com/robotalks/serterm/pkg/device"
	"github.com/robotalks/serterm/pkg/env"
	fx "github.com/robotalks/serterm/pkg/framework"
)

//go-build: CGO_ENABLED=0

var listOnly bool

func init() {
	env.SetupFlags()
	env.SetupBridgeFlags()
	flag.BoolVar(&listOnly, "list", listOnly, "List serial devices and exit.")
}

func main() {
	flag.Parse()
	conf := env.Default()

	if listOnly {
		ports, err := device.ListPorts()
		if err != nil {
			log.Fatalln(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "command: ",
		HistoryFile: conf.HistoryFile,
	})
	if err != nil {
		log.Fatalln(err)
	}
	defer rl.Close()

	session := conf.MustNewSession(rl, rl.Stdout())
	fmt.Fprintf(rl.Stdout(), "Connected to %s\n", conf.Describe())

	if conf.MQTTURL != "" {
		bridge, err := mqtt.NewBridgeFromURL(conf.MQTTURL, session.Writer)
		if err == nil {
			err = bridge.Connect()
		}
		if err != nil {
			session.Close()
			log.Fatalf("mqtt %s: %v", conf.MQTTURL, err)
		}
		bridge.Notify = func(text string) { session.Printer.Println(text) }
		session.AddHandler(bridge).AddRunnable(bridge)
	}
	if conf.ListenAddr != "" {
		hub := websocket.NewHub(conf.ListenAddr, session.Writer)
		session.AddHandler(hub).AddRunnable(hub)
	}

	ctx := fx.NewRunner().HandleSignals().Context
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	if err := session.Run(ctx); err != nil {
		log.Fatalln(err)
	}
}
