/*
Package agent runs the bootloader protocol loop.

The loop is a single-threaded busy-poll scheduler. Each iteration asks the
Transport for one byte without blocking and feeds it to the wire decoder.
When a frame completes, the command is dispatched and its response is
streamed back one byte at a time; Send blocks until the transport accepts
each byte, which is the only backpressure in the system.

	Idle/Receiving --byte, frame incomplete--> Receiving
	Receiving      --frame complete--------> Dispatching
	Dispatching    --response--------------> Responding --all bytes sent--> Idle
	Dispatching    --Reset-----------------> Idle (decoder cleared, no response)

A frame that fails to decode is answered with InternalError and the
decoder is cleared. Flash operations always run to completion before the
next byte is read; nothing can cancel them midway.

At boot the agent reads the FlashInfo record from flash, validates it and
builds the read-only attribute store served by GetAttr.

Typical use:

	sim := flash.NewSimulator()
	_ = flashinfo.DefaultLayout(sim)

	cfg, _ := agent.NewConfig(agent.WithLogger(logger.GetLogger()))
	a, err := agent.New(cfg, transport.NewConn(conn), sim)
	if err != nil {
		return err
	}

	return a.Run(ctx)
*/
package agent
