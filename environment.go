package dagger

import (
	"sync"

	"github.com/evergreen-ci/pail"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global", conf: &Configuration{}} }

// Environment objects provide access to shared configuration and
// state, in a way that you can isolate and test for in
type Environment interface {
	// Configure validates and stores the configuration, and creates a
	// local queue sized by it unless a queue is already set. Like
	// SetQueue, it never replaces an existing queue.
	Configure(*Configuration) error

	// GetQueue retrieves the application's shared queue, which is
	// used to analyze several graphs at once.
	GetQueue() (amboy.Queue, error)
	// SetQueue configures the global application cache's shared queue.
	SetQueue(amboy.Queue) error

	GetConf() (*Configuration, error)

	// GetBucket returns the bucket that batch reports are written to.
	GetBucket() (pail.Bucket, error)
	SetBucket(pail.Bucket) error
}

// NewEnvironment returns an environment that is not shared with the
// rest of the process.
func NewEnvironment(name string) Environment { return &envState{name: name} }

type envState struct {
	name   string
	queue  amboy.Queue
	bucket pail.Bucket
	conf   *Configuration
	mutex  sync.RWMutex
}

func (c *envState) Configure(conf *Configuration) error {
	if conf == nil {
		return errors.New("cannot configure with a nil configuration")
	}

	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = conf
	if c.queue != nil {
		grip.Noticef("'%s' service cache already has a queue, keeping it", c.name)
		return nil
	}

	c.queue = queue.NewLocalLimitedSize(conf.NumWorkers, DefaultQueueSize)
	grip.Infof("configured local queue with %d workers", conf.NumWorkers)

	return nil
}

func (c *envState) SetQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' service cache for use in tasks", q, c.name)
	return nil
}

func (c *envState) GetQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.queue == nil {
		return nil, errors.New("no queue defined in the services cache")
	}

	return c.queue, nil
}

func (c *envState) SetBucket(b pail.Bucket) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if b == nil {
		return errors.New("cannot set bucket to nil")
	}

	c.bucket = b
	return nil
}

func (c *envState) GetBucket() (pail.Bucket, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.bucket == nil {
		return nil, errors.New("no report bucket defined")
	}

	return c.bucket, nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct
	out := &Configuration{}
	*out = *c.conf

	return out, nil
}
