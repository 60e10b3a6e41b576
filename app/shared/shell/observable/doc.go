// Package observable decorates command and query handlers with metrics, tracing and logging.
//
// The wrappers never change what a handler returns. They only translate the outcome into
// observability signals:
//
//	handler := lendbookcopy.NewCommandHandler(store)
//	wrapped, err := observable.NewCommandWrapper[lendbookcopy.Command, circulation.Loan](
//		handler,
//		observable.WithCommandMetrics[lendbookcopy.Command, circulation.Loan](metrics),
//		observable.WithCommandTracing[lendbookcopy.Command, circulation.Loan](tracing),
//		observable.WithCommandContextualLogging[lendbookcopy.Command, circulation.Loan](logger),
//	)
package observable
