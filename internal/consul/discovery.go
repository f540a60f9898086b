package consul

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"slices"
	"strconv"
	"strings"

	consulapi "github.com/hashicorp/consul/api"
)

// ErrNoInstances is returned when a service has no passing instance
var ErrNoInstances = errors.New("no healthy instances")

// ServiceInstance is one passing instance of a service
type ServiceInstance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// URL returns the instance's base HTTP URL
func (s ServiceInstance) URL() string {
	return "http://" + net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// Discover lists passing instances of service, narrowed to tag when it is set
func (c *Client) Discover(ctx context.Context, service, tag string) ([]ServiceInstance, error) {
	q := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.api.Health().Service(service, tag, true, q)
	if err != nil {
		return nil, fmt.Errorf("failed to discover service %s: %w", service, err)
	}
	return instancesFrom(entries), nil
}

// DiscoverOne picks a random passing instance of service
func (c *Client) DiscoverOne(ctx context.Context, service string) (ServiceInstance, error) {
	instances, err := c.Discover(ctx, service, "")
	if err != nil {
		return ServiceInstance{}, err
	}
	inst, err := pick(instances, rand.IntN)
	if err != nil {
		return ServiceInstance{}, fmt.Errorf("%s: %w", service, err)
	}
	return inst, nil
}

// instancesFrom converts health entries, falling back to the node address for
// services registered without one. The result is ordered by ID.
func instancesFrom(entries []*consulapi.ServiceEntry) []ServiceInstance {
	out := make([]ServiceInstance, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Service == nil {
			continue
		}
		inst := ServiceInstance{
			ID:      e.Service.ID,
			Name:    e.Service.Service,
			Address: e.Service.Address,
			Port:    e.Service.Port,
			Tags:    e.Service.Tags,
		}
		if inst.Address == "" && e.Node != nil {
			inst.Address = e.Node.Address
		}
		if inst.Address == "" || inst.Port == 0 {
			continue
		}
		out = append(out, inst)
	}

	slices.SortFunc(out, func(a, b ServiceInstance) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func pick(instances []ServiceInstance, intn func(int) int) (ServiceInstance, error) {
	if len(instances) == 0 {
		return ServiceInstance{}, ErrNoInstances
	}
	return instances[intn(len(instances))], nil
}
