/*
	Schedulers by the names configuration uses for them.
*/
package schedulerdispatch

import (
	"sort"
	"strings"

	"polydawn.net/fperr/def"
	"polydawn.net/fperr/executor"
	"polydawn.net/fperr/scheduler"
	"polydawn.net/fperr/scheduler/group"
	"polydawn.net/fperr/scheduler/linear"
)

var known = map[string]func() scheduler.Scheduler{
	"linear": func() scheduler.Scheduler { return &linear.Scheduler{} },
	"group":  func() scheduler.Scheduler { return &group.Scheduler{} },
}

// Names of every scheduler Start can build, sorted.
func Names() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

/*
	Start builds the named scheduler around e, with `workers` workers
	where the scheduler has a choice, and starts it consuming jobs.
*/
func Start(name string, e executor.Executor, workers int) (scheduler.Scheduler, error) {
	build, ok := known[name]
	if !ok {
		return nil, def.ValidationError.New("no scheduler named %q (have %s)", name, strings.Join(Names(), ", "))
	}
	s := build()
	s.Configure(e, workers)
	s.Start()
	return s, nil
}
