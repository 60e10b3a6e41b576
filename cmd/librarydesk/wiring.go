package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/app/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/changecopiestotal"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/deletebook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/editbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/importlegacybooks"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/lendbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/command/returnbookcopy"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/backup"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/exportcatalog"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/getbook"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/listloans"
	"github.com/AntonStoeckl/library-circulation-go/app/features/query/searchbooks"
	"github.com/AntonStoeckl/library-circulation-go/app/httpapi"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell/config"
	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell/observable"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
)

func (env *environment) openStore(ctx context.Context) (*postgresengine.Store, func(), error) {
	return config.OpenStore(ctx, env.cfg.Database, env.observers.storeOptions()...)
}

// wiring collects the errors of wrapping many handlers, so they can be checked once.
type wiring struct {
	observers observers
	errs      []error
}

func (w *wiring) err() error {
	return errors.Join(w.errs...)
}

func wrapCommand[C shell.Command, R any](w *wiring, core shell.CommandHandler[C, R]) shell.CommandHandler[C, R] {
	options := []observable.CommandOption[C, R]{observable.WithCommandLogging[C, R](w.observers.logger)}

	if w.observers.contextual != nil {
		options = append(options, observable.WithCommandContextualLogging[C, R](w.observers.contextual))
	}

	if w.observers.metrics != nil {
		options = append(options, observable.WithCommandMetrics[C, R](w.observers.metrics))
	}

	if w.observers.tracing != nil {
		options = append(options, observable.WithCommandTracing[C, R](w.observers.tracing))
	}

	wrapper, err := observable.NewCommandWrapper(core, options...)
	if err != nil {
		w.errs = append(w.errs, err)
		return core
	}

	return wrapper
}

func wrapQuery[Q shell.Query, R any](w *wiring, core shell.QueryHandler[Q, R]) shell.QueryHandler[Q, R] {
	options := []observable.QueryOption[Q, R]{observable.WithQueryLogging[Q, R](w.observers.logger)}

	if w.observers.contextual != nil {
		options = append(options, observable.WithQueryContextualLogging[Q, R](w.observers.contextual))
	}

	if w.observers.metrics != nil {
		options = append(options, observable.WithQueryMetrics[Q, R](w.observers.metrics))
	}

	if w.observers.tracing != nil {
		options = append(options, observable.WithQueryTracing[Q, R](w.observers.tracing))
	}

	wrapper, err := observable.NewQueryWrapper(core, options...)
	if err != nil {
		w.errs = append(w.errs, err)
		return core
	}

	return wrapper
}

// buildHandlers wires every use case to the store, each one wrapped for logging, metrics and tracing.
func buildHandlers(store *postgresengine.Store, o observers) (httpapi.Handlers, error) {
	w := &wiring{observers: o}

	handlers := httpapi.Handlers{
		AddBook:           wrapCommand[addbook.Command, circulation.Book](w, addbook.NewCommandHandler(store)),
		EditBook:          wrapCommand[editbook.Command, circulation.Book](w, editbook.NewCommandHandler(store)),
		ChangeCopiesTotal: wrapCommand[changecopiestotal.Command, circulation.Book](w, changecopiestotal.NewCommandHandler(store)),
		DeleteBook:        wrapCommand[deletebook.Command, uuid.UUID](w, deletebook.NewCommandHandler(store)),
		LendBookCopy:      wrapCommand[lendbookcopy.Command, circulation.Loan](w, lendbookcopy.NewCommandHandler(store)),
		ReturnBookCopy:    wrapCommand[returnbookcopy.Command, circulation.Loan](w, returnbookcopy.NewCommandHandler(store)),
		ImportLegacyBooks: wrapCommand[importlegacybooks.Command, circulation.ImportStats](w, importlegacybooks.NewCommandHandler(store)),

		SearchBooks:   wrapQuery[searchbooks.Query, searchbooks.Books](w, searchbooks.NewQueryHandler(store)),
		GetBook:       wrapQuery[getbook.Query, circulation.Book](w, getbook.NewQueryHandler(store)),
		ListLoans:     wrapQuery[listloans.Query, listloans.Loans](w, listloans.NewQueryHandler(store)),
		ExportCatalog: wrapQuery[exportcatalog.Query, exportcatalog.Export](w, exportcatalog.NewQueryHandler(store)),
		Backup:        wrapQuery[backup.Query, backup.Snapshot](w, backup.NewQueryHandler(store)),

		Health: store,
	}

	return handlers, w.err()
}
