package scoring

// AggregateFulfillment combines the fulfillment of every enabled service that
// covers the touchpoint into one best-available vector: the component-wise
// maximum. Disabled services and services without an entry for the touchpoint
// contribute nothing. With no contributors every factor is 0.
func AggregateFulfillment(touchPointID string, services []Service) FulfillmentVector {
	var best FulfillmentVector
	for i := range services {
		s := &services[i]
		if !s.Enabled {
			continue
		}
		f, ok := s.Fulfillment[touchPointID]
		if !ok {
			continue
		}
		for k := range best {
			if v := clampFactor(f[k]); v > best[k] {
				best[k] = v
			}
		}
	}
	return best
}
