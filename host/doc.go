/*
Package host is the host side of the bootloader protocol.

Client sends one command at a time over any io.ReadWriter and waits for
its response. Failure responses come back as errors:

	BadArguments  -> ErrBadArguments
	InternalError -> ErrInternalError
	Unknown       -> ErrUnknownCommand

When the stream has a SetReadDeadline method (net.Conn, the serial and
loopback transports) every response is bounded by the client timeout or the
context deadline, whichever is sooner.

Programmer builds on Client to flash a whole image: it erases every page the
image covers, writes it page by page, reads it back and compares.

	c, _ := host.NewClient(conn, host.WithTimeout(2*time.Second))
	p := host.NewProgrammer(c, host.WithProgress(func(p host.Progress) {
		fmt.Printf("%s %d/%d\n", p.Phase, p.Done, p.Total)
	}))
	report, err := p.Flash(ctx, 0x10000, image)
*/
package host
