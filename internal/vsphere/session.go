package vsphere

import (
	"context"
	"net/url"
	"sync"

	"github.com/kubev2v/inventory-report/internal/config"
	"github.com/kubev2v/inventory-report/internal/inventory"
	"github.com/pkg/errors"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/license"
	"github.com/vmware/govmomi/property"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"
	"go.uber.org/zap"
)

// Session is an authenticated connection to a vCenter or ESXi endpoint.
// Remote calls made through it are serialized and resolved managed object
// names are cached for the lifetime of the session.
type Session struct {
	client   *govmomi.Client
	identity inventory.Identity

	mu       sync.Mutex
	entities map[types.ManagedObjectReference]mo.ManagedEntity
	licenses *license.AssignmentManager
}

// Connect logs into endpoint, which may be a bare host name or a full SDK URL.
func Connect(ctx context.Context, endpoint string, creds config.Credentials, insecure bool) (*Session, error) {
	u, err := soap.ParseURL(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %q", endpoint)
	}
	if u == nil {
		return nil, errors.Errorf("invalid endpoint %q", endpoint)
	}
	u.User = url.UserPassword(creds.Username, creds.Password)

	c, err := govmomi.NewClient(ctx, u, insecure)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", u.Host)
	}

	return NewSession(ctx, c, endpoint), nil
}

// NewSession wraps an already logged in client.
func NewSession(ctx context.Context, c *govmomi.Client, endpoint string) *Session {
	about := c.ServiceContent.About
	s := &Session{
		client:   c,
		entities: map[types.ManagedObjectReference]mo.ManagedEntity{},
		identity: inventory.Identity{
			Endpoint:  endpoint,
			Product:   about.FullName,
			Version:   about.Version,
			Build:     about.Build,
			Principal: inventory.Sentinel,
		},
	}

	if us, err := c.SessionManager.UserSession(ctx); err != nil {
		zap.S().Named("vsphere").Debugf("failed to read the session user: %v", err)
	} else if us != nil {
		s.identity.Principal = us.UserName
	}

	return s
}

func (s *Session) Identity() inventory.Identity {
	return s.identity
}

func (s *Session) Disconnect(ctx context.Context) error {
	return s.client.Logout(ctx)
}

func (s *Session) ListVMs(ctx context.Context) ([]mo.VirtualMachine, error) {
	var all []mo.VirtualMachine
	if err := s.retrieve(ctx, "VirtualMachine", []string{"name", "parent", "runtime", "config", "summary", "guest", "datastore"}, &all); err != nil {
		return nil, err
	}

	vms := make([]mo.VirtualMachine, 0, len(all))
	for _, vm := range all {
		if vm.Config != nil && vm.Config.Template {
			continue
		}
		vms = append(vms, vm)
	}
	return vms, nil
}

func (s *Session) ListHosts(ctx context.Context) ([]mo.HostSystem, error) {
	var hosts []mo.HostSystem
	if err := s.retrieve(ctx, "HostSystem", []string{"name", "parent", "runtime", "config", "summary"}, &hosts); err != nil {
		return nil, err
	}
	return hosts, nil
}

func (s *Session) ListDatastores(ctx context.Context) ([]mo.Datastore, error) {
	var datastores []mo.Datastore
	if err := s.retrieve(ctx, "Datastore", []string{"name", "summary", "host"}, &datastores); err != nil {
		return nil, err
	}
	return datastores, nil
}

func (s *Session) retrieve(ctx context.Context, kind string, props []string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := view.NewManager(s.client.Client)
	v, err := m.CreateContainerView(ctx, s.client.ServiceContent.RootFolder, []string{kind}, true)
	if err != nil {
		return errors.Wrapf(err, "creating %s container view", kind)
	}
	defer func() {
		_ = v.Destroy(ctx)
	}()

	if err := v.Retrieve(ctx, []string{kind}, props, dst); err != nil {
		return errors.Wrapf(err, "retrieving %s objects", kind)
	}
	return nil
}

// entity resolves the name and parent of a managed object, once per session.
func (s *Session) entity(ctx context.Context, ref types.ManagedObjectReference) (mo.ManagedEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entities[ref]; ok {
		return e, nil
	}

	var e mo.ManagedEntity
	if err := property.DefaultCollector(s.client.Client).RetrieveOne(ctx, ref, []string{"name", "parent"}, &e); err != nil {
		return e, errors.Wrapf(err, "retrieving %s", ref)
	}
	s.entities[ref] = e
	return e, nil
}

func (s *Session) name(ctx context.Context, ref *types.ManagedObjectReference) (string, error) {
	if ref == nil {
		return "", errors.New("no managed object reference")
	}
	e, err := s.entity(ctx, *ref)
	if err != nil {
		return "", err
	}
	return e.Name, nil
}

func (s *Session) licenseKey(ctx context.Context, host types.ManagedObjectReference) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.licenses == nil {
		am, err := license.NewManager(s.client.Client).AssignmentManager(ctx)
		if err != nil {
			return "", errors.Wrap(err, "license assignment manager")
		}
		s.licenses = am
	}

	assigned, err := s.licenses.QueryAssigned(ctx, host.Value)
	if err != nil {
		return "", errors.Wrapf(err, "querying license of %s", host.Value)
	}
	if len(assigned) == 0 {
		return "", errors.Errorf("no license assigned to %s", host.Value)
	}
	return assigned[0].AssignedLicense.LicenseKey, nil
}
