package tcc

// dbscan clusters points in raster (row, col) space with Euclidean
// distance, using the classic neighborhood-expansion formulation:
// a point is a core point if at least minSamples points (including
// itself) lie within eps; clusters grow by expanding from core points
// to every point in their neighborhood, absorbing border points but
// not expanding through them. Points that end up in no cluster are
// noise and dropped.
func dbscan(points []PixelCoord, eps float64, minSamples int) [][]PixelCoord {
	n := len(points)
	if n == 0 {
		return nil
	}

	eps2 := eps * eps
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dr := float64(points[i].Row - points[j].Row)
			dc := float64(points[i].Col - points[j].Col)
			if dr*dr+dc*dc <= eps2 {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}

	const (
		unvisited = 0
		noise     = 1
		clustered = 2
	)
	state := make([]int, n)
	clusterOf := make([]int, n)
	for i := range clusterOf {
		clusterOf[i] = -1
	}

	numClusters := 0
	for i := 0; i < n; i++ {
		if state[i] != unvisited {
			continue
		}
		if len(neighbors[i])+1 < minSamples {
			state[i] = noise
			continue
		}

		state[i] = clustered
		clusterOf[i] = numClusters
		queue := append([]int{}, neighbors[i]...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if state[j] == noise {
				state[j] = clustered
				clusterOf[j] = numClusters
				continue
			}
			if state[j] == clustered {
				continue
			}
			state[j] = clustered
			clusterOf[j] = numClusters
			if len(neighbors[j])+1 >= minSamples {
				queue = append(queue, neighbors[j]...)
			}
		}
		numClusters++
	}

	groups := make([][]PixelCoord, numClusters)
	for i, cid := range clusterOf {
		if cid < 0 {
			continue
		}
		groups[cid] = append(groups[cid], points[i])
	}
	return groups
}
