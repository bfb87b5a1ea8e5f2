// Package splitter reassembles length-prefixed messages from a byte stream
// delivered in arbitrary chunks.
//
// # Wire Format
//
// Every frame is an 8-byte little-endian header followed by the payload:
//
//	offset 0..4   uint32  message type
//	offset 4..8   uint32  payload length L
//	offset 8..8+L         payload
//
// There is no padding, checksum, magic number or version at this layer.
//
// # Usage
//
//	s, err := splitter.New(splitter.WithCapacity(64 * 1024))
//	if err != nil {
//	    return err
//	}
//	for {
//	    n, err := conn.Read(buf[:min(len(buf), s.Free())])
//	    frames, ferr := s.Feed(buf[:n])
//	    if ferr != nil {
//	        return ferr // fatal, close the connection
//	    }
//	    for _, f := range frames {
//	        // Payloads are overwritten by the next Feed.
//	        keep = append(keep, f.Clone())
//	    }
//	    ...
//	}
//
// # Memory
//
// A Splitter owns one buffer of fixed capacity (DefaultCapacity unless set
// with WithCapacity). Unconsumed bytes, including a partial header, never
// exceed it. Payloads returned by Feed point into that buffer and are only
// valid until the next Feed or Each; call Frame.Clone to retain one.
//
// # Errors
//
// A chunk that does not fit, or a header announcing a frame that can never
// fit, yields a *CapacityError matching ErrCapacityExceeded. Framing is not
// self-healing: after any error the Splitter must be discarded.
package splitter
