package visual

import (
	"github.com/pkg/errors"

	"github.com/Readm/cluster_map/hooks"
)

func (c *Controller) handlerTable() map[string]func(Event) error {
	noop := func(Event) error { return nil }
	return map[string]func(Event) error{
		EventPing:          noop,
		EventPong:          noop,
		EventWorkerJoin:    c.onWorkerJoin,
		EventRemoveWorker:  c.onRemoveWorker,
		EventStartTask:     c.onStartTask,
		EventEndTask:       c.onEndTask,
		EventStartTransfer: c.onStartTransfer,
		EventEndTransfer:   c.onEndTransfer,
		EventStartSwap:     c.onStartSwap,
		EventEndSwap:       c.onEndSwap,
		EventKilledWorker:  c.onKilledWorker,
		EventReset:         func(Event) error { c.Reset(); return nil },
		EventTransition:    c.onTransition,
	}
}

// Dispatch routes one event to its handler. Unknown names are logged and ignored. Events with
// missing fields return an error wrapping ErrMissingField and change nothing.
func (c *Controller) Dispatch(ev Event) error {
	ctx := &hooks.DispatchContext{
		Name:      ev.Name,
		Event:     ev,
		At:        c.now(),
		Synthetic: ev.Name == EventTransition,
	}
	if err := c.broker.EmitBeforeDispatch(ctx); err != nil {
		c.log.WithError(err).Debugf("event %q dropped by hook", ev.Name)
		return nil
	}

	handler, known := c.handlers[ev.Name]
	ctx.Known = known
	var err error
	if known {
		err = handler(ev)
		if err != nil {
			c.log.WithError(err).Warnf("event %q not applied", ev.Name)
		}
	} else {
		c.log.Infof("ignoring unknown event %q", ev.Name)
	}

	stats := c.Stats()
	ctx.Err = err
	ctx.Workers, ctx.Transfers, ctx.Tasks = stats.Workers, stats.Transfers, stats.Tasks
	if hookErr := c.broker.EmitAfterDispatch(ctx); hookErr != nil {
		c.log.WithError(hookErr).Warn("after-dispatch hook failed")
	}
	return err
}

func (c *Controller) onWorkerJoin(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.AddWorker(ev.ID)
	return nil
}

func (c *Controller) onRemoveWorker(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.RemoveWorker(ev.ID)
	return nil
}

func (c *Controller) onStartTask(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}, field{"task_name", ev.TaskName}); err != nil {
		return err
	}
	c.StartTask(ev.ID, ev.TaskName, ev.Color)
	return nil
}

func (c *Controller) onEndTask(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.EndTask(ev.ID, ev.TaskName)
	return nil
}

func (c *Controller) onStartTransfer(ev Event) error {
	if err := required(ev.Name, field{"start_worker", ev.StartWorker}, field{"end_worker", ev.EndWorker}); err != nil {
		return err
	}
	c.StartTransfer(ev.StartWorker, ev.EndWorker, c.style.TransferColor)
	return nil
}

// onEndTransfer ends the oldest active transfer between the pair; authoritative end events do
// not carry the arc handle.
func (c *Controller) onEndTransfer(ev Event) error {
	if err := required(ev.Name, field{"start_id", ev.StartID}, field{"end_id", ev.EndID}); err != nil {
		return err
	}
	h, _ := c.transfers.oldestBetween(ev.StartID, ev.EndID)
	c.EndTransfer(ev.StartID, ev.EndID, h)
	return nil
}

func (c *Controller) onStartSwap(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.StartSwap(ev.ID)
	return nil
}

func (c *Controller) onEndSwap(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.EndSwap(ev.ID)
	return nil
}

func (c *Controller) onKilledWorker(ev Event) error {
	if err := required(ev.Name, field{"id", ev.ID}); err != nil {
		return err
	}
	c.KillWorker(ev.ID)
	return nil
}

// IsMissingField reports whether err came from an event without a required field.
func IsMissingField(err error) bool {
	return errors.Cause(err) == ErrMissingField
}
