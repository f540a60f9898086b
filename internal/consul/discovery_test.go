package consul

import (
	"errors"
	"testing"

	consulapi "github.com/hashicorp/consul/api"
)

func TestInstancesFrom(t *testing.T) {
	entries := []*consulapi.ServiceEntry{
		{
			Node:    &consulapi.Node{Address: "10.0.0.9"},
			Service: &consulapi.AgentService{ID: "follow-b", Service: "follow-service", Port: 8085},
		},
		{
			Node:    &consulapi.Node{Address: "10.0.0.8"},
			Service: &consulapi.AgentService{ID: "follow-a", Service: "follow-service", Address: "host-a", Port: 8085, Tags: []string{"follow"}},
		},
		{Node: &consulapi.Node{Address: "10.0.0.7"}},
		{Service: &consulapi.AgentService{ID: "follow-c", Service: "follow-service", Port: 8085}},
	}

	got := instancesFrom(entries)
	if len(got) != 2 {
		t.Fatalf("Expected 2 usable instances, got %+v", got)
	}
	if got[0].ID != "follow-a" || got[0].Address != "host-a" || got[0].Tags[0] != "follow" {
		t.Errorf("Expected service address kept, got %+v", got[0])
	}
	if got[1].ID != "follow-b" || got[1].URL() != "http://10.0.0.9:8085" {
		t.Errorf("Expected node address fallback, got %+v", got[1])
	}
}

func TestPick(t *testing.T) {
	if _, err := pick(nil, func(int) int { return 0 }); !errors.Is(err, ErrNoInstances) {
		t.Errorf("Expected ErrNoInstances, got %v", err)
	}

	instances := []ServiceInstance{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	inst, err := pick(instances, func(n int) int { return n - 1 })
	if err != nil || inst.ID != "c" {
		t.Errorf("Expected last instance, got %+v (%v)", inst, err)
	}
}
