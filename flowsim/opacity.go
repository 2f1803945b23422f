package flowsim

// Opacity maps a bubble's age to [0,1]: a linear fade-in over the first
// fadePortion of the lifespan, full visibility in the middle, a linear
// fade-out over the last fadePortion. Outside [0, lifespan] the bubble
// is invisible. fadePortion is expected in (0, 0.5] so the two ramps
// cannot overlap.
func Opacity(age, lifespan, fadePortion float64) float64 {
	if age < 0 || age > lifespan {
		return 0
	}
	fade := lifespan * fadePortion
	if age < fade {
		return age / fade
	}
	if age > lifespan-fade {
		return 1 - (age-(lifespan-fade))/fade
	}
	return 1
}
